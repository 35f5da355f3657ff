package shared

import (
	"strconv"
	"strings"

	"github.com/chb-creations/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ParsePathUint 解析路径中的正整数参数，失败时直接返回错误响应。
func ParsePathUint(c *gin.Context, key, invalidKey string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(key))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(value), true
}

// QueryInt 读取整型查询参数，缺失或非法时返回默认值。
func QueryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
