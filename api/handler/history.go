package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shopsnap/models"
)

const maxHistoryLimit = 100

// HistoryReader lists stored results. *history.Store implements it.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	Count(ctx context.Context) (int, error)
}

// History returns a handler for GET /api/history?limit=N.
func History(h HistoryReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Error: &models.ErrorDetail{
						Code:    models.ErrCodeInvalidInput,
						Message: "limit must be a positive integer",
					},
				})
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		items, err := h.Recent(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		total, err := h.Count(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.HistoryResponse{Items: items, Total: total})
	}
}
