package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// Source abstracts a live weather capability. New sources are registered on
// the resolver by implementing this interface; the resolver is agnostic to
// how many are configured.
type Source interface {
	Name() string
	Fetch(ctx context.Context, loc models.Location, ts time.Time) (models.WeatherSnapshot, error)
}

// SourceError wraps a failed fetch attempt. It is absorbed by the resolver's
// fallback chain and never surfaced to callers.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("weather source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
