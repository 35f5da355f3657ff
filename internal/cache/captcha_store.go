package cache

import (
	"context"
	"strings"
	"time"
)

const captchaOpTimeout = 2 * time.Second

// CaptchaStore 图片验证码答案存储，Redis 未启用时落在进程内存储
type CaptchaStore struct {
	ttl time.Duration
}

// NewCaptchaStore 创建验证码存储
func NewCaptchaStore(ttl time.Duration) *CaptchaStore {
	return &CaptchaStore{ttl: ttl}
}

func captchaKey(id string) string {
	return "captcha:" + strings.TrimSpace(id)
}

// Set 保存答案
func (s *CaptchaStore) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), captchaOpTimeout)
	defer cancel()
	return SetJSON(ctx, captchaKey(id), value, s.ttl)
}

// Get 读取答案，clear 为 true 时读取后删除
func (s *CaptchaStore) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), captchaOpTimeout)
	defer cancel()
	var value string
	ok, err := GetJSON(ctx, captchaKey(id), &value)
	if err != nil || !ok {
		return ""
	}
	if clear {
		_ = Del(ctx, captchaKey(id))
	}
	return value
}

// Verify 忽略大小写比对答案
func (s *CaptchaStore) Verify(id, answer string, clear bool) bool {
	expected := s.Get(id, clear)
	return expected != "" && strings.EqualFold(expected, strings.TrimSpace(answer))
}
