package public

import (
	"strings"

	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加入购物车请求
type CartItemRequest struct {
	ProductID         uint              `json:"product_id" binding:"required"`
	Quantity          int               `json:"quantity" binding:"required"`
	StartDate         string            `json:"start_date" binding:"required"`
	EndDate           string            `json:"end_date" binding:"required"`
	StartTime         string            `json:"start_time"`
	EndTime           string            `json:"end_time"`
	Selections        map[string]string `json:"selections"`
	Personalizations  map[string]string `json:"personalizations"`
	NeedsInstallation bool              `json:"needs_installation"`
}

// CartQuantityRequest 修改数量请求，数量为 0 时移除该行
type CartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartDeliveryRequest 配送方式请求
type CartDeliveryRequest struct {
	DeliveryOption  string `json:"delivery_option" binding:"required"`
	DeliveryAddress string `json:"delivery_address"`
}

// DeliveryQuoteRequest 购物车配送报价请求
type DeliveryQuoteRequest struct {
	Address string `json:"address" binding:"required"`
}

// GetCart 获取当前购物车，首次访问时签发令牌
func (h *Handler) GetCart(c *gin.Context) {
	token := h.ensureCartToken(c)
	cart, err := h.CartService.Get(c.Request.Context(), token)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	token := h.ensureCartToken(c)
	cart, err := h.CartService.AddItem(c.Request.Context(), token, service.AddCartItemInput{
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Selections:        req.Selections,
		Personalizations:  req.Personalizations,
		NeedsInstallation: req.NeedsInstallation,
	})
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// UpdateCartItem 修改购物车行数量并复核租期
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	cart, err := h.CartService.UpdateQuantity(c.Request.Context(), cartToken(c), strings.TrimSpace(c.Param("id")), *req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// DeleteCartItem 移除购物车行
func (h *Handler) DeleteCartItem(c *gin.Context) {
	cart, err := h.CartService.RemoveItem(c.Request.Context(), cartToken(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// SetCartDelivery 切换自提 / 配送
func (h *Handler) SetCartDelivery(c *gin.Context) {
	var req CartDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	cart, err := h.CartService.SetDelivery(c.Request.Context(), h.ensureCartToken(c), req.DeliveryOption, req.DeliveryAddress)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// QuoteCartDelivery 按购物车中可配送商品估算配送费
func (h *Handler) QuoteCartDelivery(c *gin.Context) {
	var req DeliveryQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	cart, estimate, err := h.CartService.QuoteDelivery(c.Request.Context(), cartToken(c), req.Address)
	if err != nil {
		respondDeliveryError(c, err)
		return
	}
	response.Success(c, gin.H{
		"cart":     cart,
		"estimate": estimate,
	})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	cart, err := h.CartService.Clear(c.Request.Context(), cartToken(c))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}
