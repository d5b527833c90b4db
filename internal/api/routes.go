package api

import (
	"github.com/gin-gonic/gin"

	"github.com/solarcast-ai/solarcast-go/internal/api/handlers"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Prediction *handlers.PredictionHandler
	History    *handlers.HistoryHandler
	Model      *handlers.ModelHandler
	Health     *handlers.HealthHandler
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	{
		predictions := v1.Group("/predictions")
		{
			predictions.POST("", h.Prediction.Predict)
			predictions.GET("", h.History.List)
		}

		recommendations := v1.Group("/recommendations")
		{
			recommendations.POST("", h.Prediction.Recommend)
		}

		model := v1.Group("/model")
		{
			model.GET("", h.Model.Info)
			model.POST("/retrain", h.Model.Retrain)
		}
	}
}
