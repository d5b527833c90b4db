package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/solarcast-ai/solarcast-go/internal/api"
	"github.com/solarcast-ai/solarcast-go/internal/api/handlers"
	"github.com/solarcast-ai/solarcast-go/internal/config"
	"github.com/solarcast-ai/solarcast-go/internal/database"
	"github.com/solarcast-ai/solarcast-go/internal/logging"
	"github.com/solarcast-ai/solarcast-go/internal/services"
	"github.com/solarcast-ai/solarcast-go/internal/telemetry"
	"github.com/solarcast-ai/solarcast-go/internal/weather"
)

func main() {
	// .env is optional; real deployments use environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry.Enabled)
	if err != nil {
		logger.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db.Pool); err != nil {
		logger.Fatalf("Failed to apply database schema: %v", err)
	}

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.WithError(err).Warn("Redis close failed")
		}
	}()

	resolver, snapshotCache := buildWeatherResolver(cfg, redisClient, logger)

	featureBuilder := services.NewFeatureBuilder()

	store := services.NewFileModelStore(cfg.Model.Path)
	predictor := services.NewPowerPredictor(cfg.Model, store, logger)
	generator := services.NewTrainingDataGenerator(featureBuilder, logger)
	ensureModel(predictor, generator, cfg.Model, logger)

	optimizer := services.NewConfigOptimizer(featureBuilder, predictor, cfg.Optimizer, cfg.Tariff, logger)
	repo := database.NewPredictionRepository(db.Pool, logger)
	predictionService := services.NewPredictionService(resolver, featureBuilder, predictor, optimizer, repo, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Telemetry.Enabled {
		router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}

	api.SetupRoutes(router, api.Handlers{
		Prediction: handlers.NewPredictionHandler(predictionService, logger),
		History:    handlers.NewHistoryHandler(repo, logger),
		Model:      handlers.NewModelHandler(predictor, generator, cfg.Model, logger),
		Health:     handlers.NewHealthHandler(db, redisClient, predictor, snapshotCache, logger),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// buildWeatherResolver assembles the live source chain. OpenWeatherMap leads
// when an API key is present; NASA POWER needs no credentials and always
// participates.
func buildWeatherResolver(cfg *config.Config, redisClient *database.RedisClient, logger *logrus.Logger) (*weather.Resolver, *weather.SnapshotCache) {
	var sources []weather.Source
	if cfg.Weather.OpenWeatherAPIKey != "" {
		sources = append(sources, weather.NewOpenWeatherSource(cfg.Weather.OpenWeatherURL, cfg.Weather.OpenWeatherAPIKey))
	} else {
		logger.Warn("OPENWEATHER_API_KEY not set, OpenWeatherMap source disabled")
	}
	sources = append(sources, weather.NewNASAPowerSource(cfg.Weather.NASAPowerURL))

	var cache *weather.SnapshotCache
	if cfg.Weather.CacheEnabled {
		scopeParts := make([]string, 0, len(sources)+1)
		for _, src := range sources {
			scopeParts = append(scopeParts, src.Name())
		}
		scopeParts = append(scopeParts, cfg.Weather.OpenWeatherAPIKey)
		cache = weather.NewSnapshotCache(redisClient.Client, cfg.Weather.CacheTTLDuration(), weather.ChainScope(scopeParts...))
	}

	return weather.NewResolver(sources, cache, cfg.Weather.RequestTimeoutDuration(), logger), cache
}

// ensureModel loads the persisted model, training a fresh one from the
// physics simulator when none exists yet.
func ensureModel(predictor *services.PowerPredictor, generator *services.TrainingDataGenerator, cfg config.ModelConfig, logger *logrus.Logger) {
	err := predictor.LoadFromStore()
	if err == nil {
		return
	}
	logger.WithError(err).Info("No persisted model found, training a new one")

	ds := generator.Generate(cfg.TrainingSamples, cfg.TrainingSeed)
	if _, err := predictor.Retrain(ds, true); err != nil {
		logger.Fatalf("Failed to train initial model: %v", err)
	}
}
