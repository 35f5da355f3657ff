package public

import (
	"strings"
	"time"

	"github.com/chb-creations/internal/cache"
	handlershared "github.com/chb-creations/internal/http/handlers/shared"
	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/repository"
	"github.com/chb-creations/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	subcategoriesCacheKey = "public:subcategories"
	subcategoriesCacheTTL = 5 * time.Minute
)

// RangeCheckRequest 租期校验请求
type RangeCheckRequest struct {
	Quantity   int    `json:"quantity"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Revalidate bool   `json:"revalidate"`
}

// QuoteRequest 价格预览请求
type QuoteRequest struct {
	Quantity          int               `json:"quantity"`
	Selections        map[string]string `json:"selections"`
	NeedsInstallation bool              `json:"needs_installation"`
}

// GetSubcategories 子类导航
func (h *Handler) GetSubcategories(c *gin.Context) {
	var cached []repository.SubcategorySummary
	if hit, err := cache.GetJSON(c.Request.Context(), subcategoriesCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	items, err := h.ProductService.ListSubcategories(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	if err := cache.SetJSON(c.Request.Context(), subcategoriesCacheKey, items, subcategoriesCacheTTL); err != nil {
		requestLog(c).Warnw("subcategories_cache_write_failed", "error", err)
	}
	response.Success(c, items)
}

// GetProducts 按子类列出商品，携带 q 时按关键字搜索
func (h *Handler) GetProducts(c *gin.Context) {
	subcategory := strings.TrimSpace(c.Query("subcategory"))
	products, err := h.ProductService.Search(c.Request.Context(), c.Query("q"), subcategory)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.Success(c, products)
}

// GetProductBySlug 商品详情及已订日期
func (h *Handler) GetProductBySlug(c *gin.Context) {
	page, err := h.ProductService.GetProductPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, page)
}

// GetProductAvailability 商品可用日历
func (h *Handler) GetProductAvailability(c *gin.Context) {
	quantity := handlershared.QueryInt(c, "quantity", 1)
	days := handlershared.QueryInt(c, "days", 0)
	calendar, err := h.ProductService.Calendar(c.Request.Context(), c.Param("slug"), quantity, c.Query("from"), days)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, gin.H{
		"quantity": quantity,
		"days":     calendar,
	})
}

// CheckProductRange 校验所选租期
func (h *Handler) CheckProductRange(c *gin.Context) {
	var req RangeCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	check, err := h.ProductService.CheckRange(c.Request.Context(), c.Param("slug"), service.CheckRangeInput{
		Quantity:   req.Quantity,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Revalidate: req.Revalidate,
	})
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, check)
}

// QuoteProduct 单行价格预览
func (h *Handler) QuoteProduct(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	quote, err := h.ProductService.Quote(c.Request.Context(), c.Param("slug"), service.QuoteInput{
		Quantity:          req.Quantity,
		Selections:        req.Selections,
		NeedsInstallation: req.NeedsInstallation,
	})
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, quote)
}
