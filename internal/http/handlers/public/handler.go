package public

import "github.com/chb-creations/internal/provider"

// Handler 前台公开接口处理器入口
// 说明：店铺前台无账号体系，购物车通过 X-Cart-Token 识别。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
