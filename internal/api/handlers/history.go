package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/solarcast-ai/solarcast-go/internal/database"
)

// PredictionHistory lists persisted prediction results
type PredictionHistory interface {
	ListRecentPredictions(ctx context.Context, limit int) ([]database.PredictionRecord, error)
}

// HistoryHandler serves past prediction results
type HistoryHandler struct {
	history PredictionHistory
	logger  *logrus.Logger
}

func NewHistoryHandler(history PredictionHistory, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

// List handles GET /api/v1/predictions
func (h *HistoryHandler) List(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction history is not available"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer in [1, 200]"})
			return
		}
		limit = parsed
	}

	records, err := h.history.ListRecentPredictions(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list predictions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"predictions": records, "count": len(records)})
}
