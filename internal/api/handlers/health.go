package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/solarcast-ai/solarcast-go/internal/weather"
)

// HealthChecker verifies a backing service connection
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ModelStatus reports whether the predictor holds an active model
type ModelStatus interface {
	Loaded() bool
}

// HealthHandler serves liveness and component status
type HealthHandler struct {
	db        HealthChecker
	redis     HealthChecker
	predictor ModelStatus
	cache     *weather.SnapshotCache
	logger    *logrus.Logger
	startedAt time.Time
}

type HealthResponse struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Uptime    string              `json:"uptime"`
	Services  map[string]string   `json:"services"`
	Cache     *weather.CacheStats `json:"weather_cache,omitempty"`
	System    *SystemStats        `json:"system,omitempty"`
}

type SystemStats struct {
	MemoryUsedPct float64 `json:"memory_used_pct"`
	CPUUsedPct    float64 `json:"cpu_used_pct"`
}

func NewHealthHandler(db, redis HealthChecker, predictor ModelStatus, cache *weather.SnapshotCache, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redis,
		predictor: predictor,
		cache:     cache,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	svc := make(map[string]string)

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			svc["database"] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			svc["database"] = "healthy"
		}
	} else {
		svc["database"] = "not configured"
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			svc["redis"] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			svc["redis"] = "healthy"
		}
	} else {
		svc["redis"] = "not configured"
	}

	// A missing model degrades the service; predictions cannot be served.
	if h.predictor != nil {
		if h.predictor.Loaded() {
			svc["model"] = "loaded"
		} else {
			svc["model"] = "not loaded"
			status = "degraded"
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Services:  svc,
		System:    collectSystemStats(),
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		response.Cache = &stats
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

func collectSystemStats() *SystemStats {
	stats := &SystemStats{}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryUsedPct = vm.UsedPercent
	}
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		stats.CPUUsedPct = pcts[0]
	}
	return stats
}
