package config

import (
	"strings"
	"time"
	_ "time/tzdata" // 内嵌时区数据

	"github.com/chb-creations/internal/logger"
)

// Location 返回店铺所在时区，解析失败回退到 UTC
func (c ShopConfig) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warnw("shop_timezone_invalid", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// DisplayName 返回店铺展示名称
func (c ShopConfig) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "CHB Créations"
}
