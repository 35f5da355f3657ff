package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleFR      = "fr-FR"
	LocaleEN      = "en-US"
	DefaultLocale = LocaleFR
)

// T 返回指定语言的文案，缺失时回退到默认语言，再回退到 key 本身
func T(locale, key string) string {
	if msg, ok := lookup(NormalizeLocale(locale), key); ok {
		return msg
	}
	if msg, ok := lookup(DefaultLocale, key); ok {
		return msg
	}
	return key
}

// Sprintf 按文案模板格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// ResolveLocale 从请求中解析语言：lang 参数优先，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	header := strings.TrimSpace(c.GetHeader("Accept-Language"))
	if header == "" {
		return DefaultLocale
	}
	first := strings.SplitN(header, ",", 2)[0]
	first = strings.SplitN(first, ";", 2)[0]
	return NormalizeLocale(first)
}

// NormalizeLocale 归一化语言标识
func NormalizeLocale(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "en"):
		return LocaleEN
	default:
		return LocaleFR
	}
}

func lookup(locale, key string) (string, bool) {
	table, ok := messages[locale]
	if !ok {
		return "", false
	}
	msg, ok := table[key]
	return msg, ok
}
