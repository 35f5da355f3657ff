package public

import (
	"strings"

	"github.com/chb-creations/internal/constants"
	handlershared "github.com/chb-creations/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// CartTokenHeader 购物车令牌请求头
const CartTokenHeader = "X-Cart-Token"

// cartToken 读取请求携带的购物车令牌，依次查找请求头与 cookie
func cartToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(CartTokenHeader)); token != "" {
		return token
	}
	if token, err := c.Cookie(constants.CartStorageKey); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}

// ensureCartToken 读取令牌，缺失时签发新令牌并回写响应头
func (h *Handler) ensureCartToken(c *gin.Context) string {
	token := cartToken(c)
	if token == "" {
		token = h.CartService.NewToken()
	}
	c.Header(CartTokenHeader, token)
	return token
}

func parseReservationID(c *gin.Context) (uint, bool) {
	return handlershared.ParsePathUint(c, "id", "error.reservation_id_invalid")
}
