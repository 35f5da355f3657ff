package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"
)

var (
	ErrNotConfigured   = errors.New("google api key missing")
	ErrRequestFailed   = errors.New("google request failed")
	ErrResponseInvalid = errors.New("google response invalid")
	ErrNoRoute         = errors.New("google route not found")
)

const (
	defaultRoutesBaseURL = "https://routes.googleapis.com"
	defaultPlacesBaseURL = "https://places.googleapis.com"
	defaultTimeout       = 10 * time.Second

	routesFieldMask       = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline"
	placeDetailsFieldMask = "id,displayName,rating,reviews"
)

// Client Google Routes / Places REST 客户端
type Client struct {
	apiKey        string
	routesBaseURL string
	placesBaseURL string
	languageCode  string
	regionCode    string
	httpClient    *http.Client
}

// NewClient 按配置创建客户端
func NewClient(cfg config.GoogleConfig) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		apiKey:        strings.TrimSpace(cfg.APIKey),
		routesBaseURL: strings.TrimRight(strings.TrimSpace(cfg.RoutesBaseURL), "/"),
		placesBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PlacesBaseURL), "/"),
		languageCode:  strings.TrimSpace(cfg.LanguageCode),
		regionCode:    strings.ToUpper(strings.TrimSpace(cfg.RegionCode)),
		httpClient:    &http.Client{Timeout: timeout},
	}
	if c.routesBaseURL == "" {
		c.routesBaseURL = defaultRoutesBaseURL
	}
	if c.placesBaseURL == "" {
		c.placesBaseURL = defaultPlacesBaseURL
	}
	if c.languageCode == "" {
		c.languageCode = "fr"
	}
	if c.regionCode == "" {
		c.regionCode = "FR"
	}
	return c
}

// Configured 是否配置了 API Key
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) doJSON(ctx context.Context, method, endpoint, fieldMask string, payload interface{}) ([]byte, int, error) {
	if !c.Configured() {
		return nil, 0, ErrNotConfigured
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: encode request failed", ErrRequestFailed)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	if fieldMask != "" {
		req.Header.Set("X-Goog-FieldMask", fieldMask)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return respBody, resp.StatusCode, nil
}
