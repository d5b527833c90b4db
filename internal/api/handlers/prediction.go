package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/solarcast-ai/solarcast-go/internal/models"
	"github.com/solarcast-ai/solarcast-go/internal/services"
)

// Predictor is the prediction surface the handler needs. Interface so tests
// can substitute a stub.
type Predictor interface {
	Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error)
	Recommend(ctx context.Context, req models.RecommendationRequest) (*models.OptimizationResult, error)
}

// PredictionHandler serves the prediction and recommendation endpoints
type PredictionHandler struct {
	service Predictor
	logger  *logrus.Logger
}

func NewPredictionHandler(service Predictor, logger *logrus.Logger) *PredictionHandler {
	return &PredictionHandler{service: service, logger: logger}
}

// Predict handles POST /api/v1/predictions
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req models.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Predict(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Recommend handles POST /api/v1/recommendations
func (h *PredictionHandler) Recommend(c *gin.Context) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Recommend(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PredictionHandler) respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var predictionErr *services.PredictionError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrModelNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction model is not loaded"})
	case errors.As(err, &predictionErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Unhandled prediction error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
