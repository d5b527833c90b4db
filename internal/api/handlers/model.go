package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/solarcast-ai/solarcast-go/internal/config"
	"github.com/solarcast-ai/solarcast-go/internal/models"
	"github.com/solarcast-ai/solarcast-go/internal/services"
)

// ModelManager is the model-lifecycle surface the handler needs
type ModelManager interface {
	Info() (models.ModelMetadata, error)
	Retrain(ds services.Dataset, force bool) (*services.TrainedModel, error)
}

// SampleGenerator produces synthetic training datasets
type SampleGenerator interface {
	Generate(n int, seed int64) services.Dataset
}

// ModelHandler serves model metadata and retraining
type ModelHandler struct {
	predictor ModelManager
	generator SampleGenerator
	cfg       config.ModelConfig
	logger    *logrus.Logger
}

func NewModelHandler(predictor ModelManager, generator SampleGenerator, cfg config.ModelConfig, logger *logrus.Logger) *ModelHandler {
	return &ModelHandler{
		predictor: predictor,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Info handles GET /api/v1/model
func (h *ModelHandler) Info(c *gin.Context) {
	meta, err := h.predictor.Info()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction model is not loaded"})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// Retrain handles POST /api/v1/model/retrain. The dataset is regenerated from
// the physics simulator; sample count defaults from config.
func (h *ModelHandler) Retrain(c *gin.Context) {
	// Empty body retrains with configured defaults.
	var req models.RetrainRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	samples := req.Samples
	if samples == 0 {
		samples = h.cfg.TrainingSamples
	}

	ds := h.generator.Generate(samples, h.cfg.TrainingSeed)

	model, err := h.predictor.Retrain(ds, req.Force)
	if err != nil {
		h.respondRetrainError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"samples": model.Metadata.SampleCount,
		"mae":     model.Metadata.MAE,
		"r2":      model.Metadata.R2,
	}).Info("Model retrained via API")

	c.JSON(http.StatusOK, model.Metadata)
}

func (h *ModelHandler) respondRetrainError(c *gin.Context, err error) {
	var insufficientErr *services.InsufficientDataError
	var regressionErr *services.AccuracyRegressionError
	var trainingErr *services.TrainingError

	switch {
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &regressionErr):
		// New model rejected, active model unchanged.
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &trainingErr):
		h.logger.WithError(err).Error("Model training failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Unhandled retrain error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
