package public

import (
	"github.com/chb-creations/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetReviews Google 评价
func (h *Handler) GetReviews(c *gin.Context) {
	summary, err := h.ReviewService.List(c.Request.Context())
	if err != nil {
		respondReviewError(c, err)
		return
	}
	response.Success(c, summary)
}
