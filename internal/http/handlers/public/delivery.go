package public

import (
	"github.com/chb-creations/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DeliveryEstimateRequest 配送费估算请求
type DeliveryEstimateRequest struct {
	Address          string          `json:"address" binding:"required"`
	BaseDeliveryFees decimal.Decimal `json:"base_delivery_fees"`
}

// EstimateDelivery 按地址与基础配送费估算
func (h *Handler) EstimateDelivery(c *gin.Context) {
	var req DeliveryEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.BaseDeliveryFees.IsNegative() {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	estimate, err := h.DeliveryService.Estimate(c.Request.Context(), req.Address, req.BaseDeliveryFees)
	if err != nil {
		respondDeliveryError(c, err)
		return
	}
	response.Success(c, estimate)
}

// AutocompleteAddress 地址联想，外部服务异常时返回空列表
func (h *Handler) AutocompleteAddress(c *gin.Context) {
	suggestions := h.DeliveryService.Autocomplete(c.Request.Context(), c.Query("input"))
	response.Success(c, gin.H{"suggestions": suggestions})
}
