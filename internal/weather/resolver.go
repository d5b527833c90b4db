package weather

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// Resolver obtains weather metrics for a location, trying registered live
// sources in order and degrading to a deterministic synthetic estimate.
// Resolve never fails.
type Resolver struct {
	sources []Source
	cache   *SnapshotCache
	timeout time.Duration
	logger  *logrus.Logger
}

// NewResolver creates a resolver over an ordered source chain. The first
// source is the primary; every later one is a secondary. cache may be nil to
// disable snapshot caching.
func NewResolver(sources []Source, cache *SnapshotCache, timeout time.Duration, logger *logrus.Logger) *Resolver {
	return &Resolver{
		sources: sources,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
	}
}

// Resolve returns a weather snapshot for the location and time. Each live
// attempt is bounded by the configured timeout; any failure moves the chain
// forward. With all live sources down the synthetic estimate is returned, so
// callers always receive usable metrics.
func (r *Resolver) Resolve(ctx context.Context, loc models.Location, ts time.Time) models.WeatherSnapshot {
	if r.cache != nil {
		if snapshot, ok := r.cache.Get(ctx, loc, ts); ok {
			return snapshot
		}
	}

	for i, source := range r.sources {
		snapshot, err := r.attempt(ctx, source, loc, ts)
		if err != nil {
			// Absorbed by the fallback chain, recorded for observability.
			r.logger.WithFields(logrus.Fields{
				"source": source.Name(),
				"reason": err.Error(),
			}).Warn("Weather source attempt failed")
			continue
		}

		if i == 0 {
			snapshot.Provenance = models.ProvenanceLivePrimary
		} else {
			snapshot.Provenance = models.ProvenanceLiveSecondary
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, loc, ts, snapshot); err != nil {
				r.logger.WithError(err).Warn("Failed to cache weather snapshot")
			}
		}
		return snapshot
	}

	r.logger.WithFields(logrus.Fields{
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
	}).Info("All live weather sources unavailable, using synthetic estimate")

	return Synthesize(loc, ts)
}

func (r *Resolver) attempt(ctx context.Context, source Source, loc models.Location, ts time.Time) (models.WeatherSnapshot, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return source.Fetch(attemptCtx, loc, ts)
}
