package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Route 驾车路线摘要
type Route struct {
	DistanceMeters  int64
	DurationSeconds int64
	EncodedPolyline string
}

type routeWaypoint struct {
	Address string `json:"address"`
}

type computeRoutesRequest struct {
	Origin                   routeWaypoint `json:"origin"`
	Destination              routeWaypoint `json:"destination"`
	TravelMode               string        `json:"travelMode"`
	RoutingPreference        string        `json:"routingPreference"`
	ComputeAlternativeRoutes bool          `json:"computeAlternativeRoutes"`
	LanguageCode             string        `json:"languageCode"`
	Units                    string        `json:"units"`
}

type computeRoutesResponse struct {
	Routes []struct {
		DistanceMeters int64  `json:"distanceMeters"`
		Duration       string `json:"duration"`
		Polyline       struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
	} `json:"routes"`
}

// ComputeRoute 计算两地址间的驾车路线，无路线时返回 ErrNoRoute
func (c *Client) ComputeRoute(ctx context.Context, origin, destination string) (*Route, error) {
	payload := computeRoutesRequest{
		Origin:                   routeWaypoint{Address: strings.TrimSpace(origin)},
		Destination:              routeWaypoint{Address: strings.TrimSpace(destination)},
		TravelMode:               "DRIVE",
		RoutingPreference:        "TRAFFIC_AWARE",
		ComputeAlternativeRoutes: false,
		LanguageCode:             c.languageCode,
		Units:                    "METRIC",
	}
	body, status, err := c.doJSON(ctx, http.MethodPost, c.routesBaseURL+"/directions/v2:computeRoutes", routesFieldMask, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: compute routes status %d", ErrNoRoute, status)
	}
	var resp computeRoutesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode routes failed", ErrResponseInvalid)
	}
	if len(resp.Routes) == 0 {
		return nil, ErrNoRoute
	}
	first := resp.Routes[0]
	return &Route{
		DistanceMeters:  first.DistanceMeters,
		DurationSeconds: parseDurationSeconds(first.Duration),
		EncodedPolyline: first.Polyline.EncodedPolyline,
	}, nil
}

// parseDurationSeconds 解析 "1234s" 形式的时长
func parseDurationSeconds(raw string) int64 {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "s")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return seconds
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(seconds)
	}
	return 0
}
