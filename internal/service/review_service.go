package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chb-creations/internal/cache"
	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/google"
)

const (
	defaultReviewAuthor = "Utilisateur Google"
	defaultReviewDate   = "Récemment"
	defaultReviewRating = 5
	defaultReviewsTTL   = time.Hour
)

// PlaceDetailsFetcher 地点详情查询
type PlaceDetailsFetcher interface {
	Configured() bool
	PlaceDetails(ctx context.Context, placeID string) (*google.PlaceDetails, error)
}

// Review 对外展示的评价
type Review struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	Date        string  `json:"date"`
	Comment     string  `json:"comment"`
	Avatar      string  `json:"avatar,omitempty"`
	PublishTime string  `json:"publishTime"`
}

// ReviewSummary 评价列表与总评分
type ReviewSummary struct {
	Reviews []Review `json:"reviews"`
	Rating  float64  `json:"rating"`
	Name    string   `json:"name"`
}

// ReviewService Google 评价服务，结果缓存一小时
type ReviewService struct {
	places   PlaceDetailsFetcher
	placeID  string
	fallback string
	ttl      time.Duration
}

// NewReviewService 创建评价服务
func NewReviewService(places PlaceDetailsFetcher, cfg config.GoogleConfig, shop config.ShopConfig) *ReviewService {
	ttl := defaultReviewsTTL
	if cfg.ReviewsCacheTTL > 0 {
		ttl = time.Duration(cfg.ReviewsCacheTTL) * time.Second
	}
	return &ReviewService{
		places:   places,
		placeID:  strings.TrimSpace(cfg.PlaceID),
		fallback: shop.DisplayName(),
		ttl:      ttl,
	}
}

func (s *ReviewService) configured() bool {
	return s.places != nil && s.places.Configured() && s.placeID != ""
}

// List 优先读缓存，未命中时请求 Google
func (s *ReviewService) List(ctx context.Context) (*ReviewSummary, error) {
	if !s.configured() {
		return nil, ErrReviewsNotConfigured
	}
	var cached ReviewSummary
	hit, err := cache.GetReviewsSnapshot(ctx, s.placeID, &cached)
	if err != nil {
		reservationLogger("place_id", s.placeID).Warnw("reviews_cache_read_failed", "error", err)
	}
	if hit {
		return &cached, nil
	}
	return s.Refresh(ctx)
}

// Refresh 强制重新拉取并写入缓存，供定时任务提前刷新
func (s *ReviewService) Refresh(ctx context.Context) (*ReviewSummary, error) {
	if !s.configured() {
		return nil, ErrReviewsNotConfigured
	}
	log := reservationLogger("place_id", s.placeID)
	details, err := s.places.PlaceDetails(ctx, s.placeID)
	if err != nil {
		if errors.Is(err, google.ErrNotConfigured) {
			return nil, ErrReviewsNotConfigured
		}
		log.Errorw("reviews_fetch_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrReviewsFetchFailed, err)
	}
	summary := mapPlaceReviews(details, s.fallback)
	if err := cache.SetReviewsSnapshot(ctx, s.placeID, summary, s.ttl); err != nil {
		log.Warnw("reviews_cache_write_failed", "error", err)
	}
	log.Debugw("reviews_refreshed", "count", len(summary.Reviews))
	return summary, nil
}

// mapPlaceReviews 填充默认值，按发布时间倒序并重新编号
func mapPlaceReviews(details *google.PlaceDetails, fallbackName string) *ReviewSummary {
	summary := &ReviewSummary{Reviews: []Review{}, Name: fallbackName}
	if details == nil {
		return summary
	}
	summary.Rating = details.Rating
	if name := strings.TrimSpace(details.Name); name != "" {
		summary.Name = name
	}
	for _, raw := range details.Reviews {
		review := Review{
			Name:        strings.TrimSpace(raw.AuthorName),
			Rating:      raw.Rating,
			Date:        strings.TrimSpace(raw.RelativeTime),
			Comment:     raw.OriginalText,
			Avatar:      raw.AuthorPhoto,
			PublishTime: raw.PublishTime,
		}
		if review.Name == "" {
			review.Name = defaultReviewAuthor
		}
		if review.Rating == 0 {
			review.Rating = defaultReviewRating
		}
		if review.Date == "" {
			review.Date = defaultReviewDate
		}
		if review.Comment == "" {
			review.Comment = raw.Text
		}
		summary.Reviews = append(summary.Reviews, review)
	}
	sort.SliceStable(summary.Reviews, func(i, j int) bool {
		return summary.Reviews[i].PublishTime > summary.Reviews[j].PublishTime
	})
	for i := range summary.Reviews {
		summary.Reviews[i].ID = i + 1
	}
	return summary
}
