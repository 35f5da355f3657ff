package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "chb"
	connectTimeout   = 3 * time.Second
)

var (
	redisClient *redis.Client
	keyPrefix   = defaultKeyPrefix
	// fallback Redis 未启用或连接失败时的进程内存储
	fallback = NewMemoryStore()
)

// InitRedis 连接 Redis；连接失败时保持降级为进程内存储并返回错误
func InitRedis(cfg *config.RedisConfig) error {
	redisClient = nil
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	if prefix := strings.TrimSpace(cfg.Prefix); prefix != "" {
		keyPrefix = prefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis %s unreachable, using in-process store: %w", client.Options().Addr, err)
	}
	redisClient = client
	return nil
}

// Close 关闭 Redis 连接
func Close() error {
	if redisClient == nil {
		return nil
	}
	err := redisClient.Close()
	redisClient = nil
	return err
}

// Enabled Redis 是否可用
func Enabled() bool {
	return redisClient != nil
}

// Client 获取 Redis 客户端，未启用时为 nil
func Client() *redis.Client {
	return redisClient
}

// Ping 检查 Redis 连通性，未启用时直接返回
func Ping(ctx context.Context) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Ping(ctx).Err()
}

// GetJSON 读取 JSON 缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !Enabled() {
		return fallback.GetJSON(buildKey(key), dest)
	}
	val, err := redisClient.Get(ctx, buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存，ttl<=0 表示不过期
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return fallback.SetJSON(buildKey(key), value, ttl)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return redisClient.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	if !Enabled() {
		fallback.Del(buildKey(key))
		return nil
	}
	return redisClient.Del(ctx, buildKey(key)).Err()
}

func buildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return keyPrefix
	}
	return keyPrefix + ":" + trimmed
}
