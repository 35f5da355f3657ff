package cache

import (
	"context"
	"strings"
	"time"

	"github.com/chb-creations/internal/constants"
)

func cartKey(token string) string {
	return constants.CartStorageKey + ":" + strings.TrimSpace(token)
}

// ReviewsKey 评价缓存 key
func ReviewsKey(placeID string) string {
	return "reviews:" + strings.TrimSpace(placeID)
}

// GetCartSnapshot 读取购物车快照
func GetCartSnapshot(ctx context.Context, token string, dest interface{}) (bool, error) {
	return GetJSON(ctx, cartKey(token), dest)
}

// SetCartSnapshot 写入购物车快照，每次写入刷新过期时间
func SetCartSnapshot(ctx context.Context, token string, snapshot interface{}, ttl time.Duration) error {
	return SetJSON(ctx, cartKey(token), snapshot, ttl)
}

// DelCartSnapshot 删除购物车快照
func DelCartSnapshot(ctx context.Context, token string) error {
	return Del(ctx, cartKey(token))
}

// GetReviewsSnapshot 读取评价缓存
func GetReviewsSnapshot(ctx context.Context, placeID string, dest interface{}) (bool, error) {
	return GetJSON(ctx, ReviewsKey(placeID), dest)
}

// SetReviewsSnapshot 写入评价缓存
func SetReviewsSnapshot(ctx context.Context, placeID string, snapshot interface{}, ttl time.Duration) error {
	return SetJSON(ctx, ReviewsKey(placeID), snapshot, ttl)
}
