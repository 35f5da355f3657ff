package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Suggestion 地址联想结果
type Suggestion struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// PlaceReview 地点评价原始字段
type PlaceReview struct {
	AuthorName   string
	AuthorPhoto  string
	Rating       float64
	RelativeTime string
	Text         string
	OriginalText string
	PublishTime  string
}

// PlaceDetails 地点详情
type PlaceDetails struct {
	ID      string
	Name    string
	Rating  float64
	Reviews []PlaceReview
}

type autocompleteRequest struct {
	Input               string   `json:"input"`
	LanguageCode        string   `json:"languageCode"`
	IncludedRegionCodes []string `json:"includedRegionCodes"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			PlaceID string `json:"placeId"`
			Text    struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

type localizedText struct {
	Text string `json:"text"`
}

type placeDetailsResponse struct {
	ID          string         `json:"id"`
	DisplayName *localizedText `json:"displayName"`
	Rating      float64        `json:"rating"`
	Reviews     []struct {
		Rating                         float64        `json:"rating"`
		RelativePublishTimeDescription string         `json:"relativePublishTimeDescription"`
		Text                           *localizedText `json:"text"`
		OriginalText                   *localizedText `json:"originalText"`
		PublishTime                    string         `json:"publishTime"`
		AuthorAttribution              *struct {
			DisplayName string `json:"displayName"`
			PhotoURI    string `json:"photoUri"`
		} `json:"authorAttribution"`
	} `json:"reviews"`
}

// Autocomplete 地址联想，仅限配置的地区
func (c *Client) Autocomplete(ctx context.Context, input string) ([]Suggestion, error) {
	payload := autocompleteRequest{
		Input:               input,
		LanguageCode:        c.languageCode,
		IncludedRegionCodes: []string{c.regionCode},
	}
	body, status, err := c.doJSON(ctx, http.MethodPost, c.placesBaseURL+"/v1/places:autocomplete", "", payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: autocomplete status %d", ErrResponseInvalid, status)
	}
	var resp autocompleteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode autocomplete failed", ErrResponseInvalid)
	}
	suggestions := make([]Suggestion, 0, len(resp.Suggestions))
	for _, item := range resp.Suggestions {
		if item.PlacePrediction == nil {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Description: item.PlacePrediction.Text.Text,
			PlaceID:     item.PlacePrediction.PlaceID,
		})
	}
	return suggestions, nil
}

// PlaceDetails 获取地点名称、评分与评价
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, ErrNotConfigured
	}
	endpoint := fmt.Sprintf("%s/v1/places/%s?languageCode=%s", c.placesBaseURL, url.PathEscape(placeID), url.QueryEscape(c.languageCode))
	body, status, err := c.doJSON(ctx, http.MethodGet, endpoint, placeDetailsFieldMask, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: place details status %d", ErrResponseInvalid, status)
	}
	var resp placeDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode place details failed", ErrResponseInvalid)
	}
	details := &PlaceDetails{
		ID:      resp.ID,
		Rating:  resp.Rating,
		Reviews: make([]PlaceReview, 0, len(resp.Reviews)),
	}
	if resp.DisplayName != nil {
		details.Name = resp.DisplayName.Text
	}
	for _, raw := range resp.Reviews {
		review := PlaceReview{
			Rating:       raw.Rating,
			RelativeTime: raw.RelativePublishTimeDescription,
			PublishTime:  raw.PublishTime,
		}
		if raw.AuthorAttribution != nil {
			review.AuthorName = raw.AuthorAttribution.DisplayName
			review.AuthorPhoto = raw.AuthorAttribution.PhotoURI
		}
		if raw.Text != nil {
			review.Text = raw.Text.Text
		}
		if raw.OriginalText != nil {
			review.OriginalText = raw.OriginalText.Text
		}
		details.Reviews = append(details.Reviews, review)
	}
	return details, nil
}
