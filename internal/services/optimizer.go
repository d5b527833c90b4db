package services

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/solarcast-ai/solarcast-go/internal/config"
	"github.com/solarcast-ai/solarcast-go/internal/models"
	"github.com/solarcast-ai/solarcast-go/internal/telemetry"
)

// OutputPredictor is the prediction capability the optimizer drives. It is
// an interface so tests can substitute deterministic doubles.
type OutputPredictor interface {
	Predict(fv models.FeatureVector) (float64, float64, error)
}

// maxOptimizerWorkers caps grid-search parallelism
const maxOptimizerWorkers = 8

// ConfigOptimizer searches the tilt/azimuth space for the output-maximizing
// panel configuration.
type ConfigOptimizer struct {
	features  *FeatureBuilder
	predictor OutputPredictor
	cfg       config.OptimizerConfig
	tariff    config.TariffConfig
	logger    *logrus.Logger
}

// NewConfigOptimizer creates an optimizer
func NewConfigOptimizer(features *FeatureBuilder, predictor OutputPredictor, cfg config.OptimizerConfig, tariff config.TariffConfig, logger *logrus.Logger) *ConfigOptimizer {
	return &ConfigOptimizer{
		features:  features,
		predictor: predictor,
		cfg:       cfg,
		tariff:    tariff,
		logger:    logger,
	}
}

type candidate struct {
	tilt    float64
	azimuth float64
}

type evaluation struct {
	candidate
	output float64
}

// Optimize grid-searches tilt in [0, 90] and azimuth in [0, 360) at the
// configured resolution, predicting daily output for every candidate under
// the given weather. Candidates are evaluated concurrently by a bounded
// worker pool; the reduction runs over the full candidate set so the result
// is deterministic regardless of completion order. When current is supplied
// the result never falls below the current configuration's output.
func (o *ConfigOptimizer) Optimize(ctx context.Context, loc models.Location, base models.PanelConfiguration, weather models.WeatherSnapshot, at time.Time, current *models.PanelConfiguration) (*models.OptimizationResult, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	candidates := o.candidates()

	ctx, span := telemetry.Tracer().Start(ctx, "optimizer.grid_search")
	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Float64("tilt_step_deg", o.cfg.TiltStepDeg),
		attribute.Float64("azimuth_step_deg", o.cfg.AzimuthStepDeg),
	)
	defer span.End()

	evaluations, err := o.evaluateAll(ctx, loc, base, weather, at, candidates)
	if err != nil {
		return nil, err
	}

	best := reduceMax(evaluations, current)

	result := &models.OptimizationResult{
		ID:                uuid.New(),
		Location:          loc,
		OptimalTiltDeg:    best.tilt,
		OptimalAzimuthDeg: best.azimuth,
		OptimalOutputKWh:  best.output,
		Weather:           weather,
		CreatedAt:         time.Now().UTC(),
	}

	if current != nil {
		if err := o.applyBaseline(loc, *current, weather, at, result); err != nil {
			return nil, err
		}
	}

	o.logger.WithFields(logrus.Fields{
		"optimal_tilt":    result.OptimalTiltDeg,
		"optimal_azimuth": result.OptimalAzimuthDeg,
		"optimal_output":  result.OptimalOutputKWh,
		"candidates":      len(candidates),
	}).Info("Optimization completed")

	return result, nil
}

// candidates produces the grid in ascending (tilt, azimuth) order
func (o *ConfigOptimizer) candidates() []candidate {
	var out []candidate
	for tilt := 0.0; tilt <= 90; tilt += o.cfg.TiltStepDeg {
		for azimuth := 0.0; azimuth < 360; azimuth += o.cfg.AzimuthStepDeg {
			out = append(out, candidate{tilt: tilt, azimuth: azimuth})
		}
	}
	return out
}

// evaluateAll predicts output for every candidate using a bounded worker
// pool. Cancellation is honored between candidate evaluations.
func (o *ConfigOptimizer) evaluateAll(ctx context.Context, loc models.Location, base models.PanelConfiguration, weather models.WeatherSnapshot, at time.Time, candidates []candidate) ([]evaluation, error) {
	workers := o.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxOptimizerWorkers {
		workers = maxOptimizerWorkers
	}

	jobs := make(chan candidate, len(candidates))
	results := make(chan evaluation, len(candidates))
	errs := make(chan error, workers)

	for _, cand := range candidates {
		jobs <- cand
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range jobs {
				if ctx.Err() != nil {
					return
				}
				output, err := o.evaluate(loc, base, weather, at, cand)
				if err != nil {
					errs <- err
					return
				}
				results <- evaluation{candidate: cand, output: output}
			}
		}()
	}

	wg.Wait()
	close(results)
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	evaluations := make([]evaluation, 0, len(candidates))
	for eval := range results {
		evaluations = append(evaluations, eval)
	}
	return evaluations, nil
}

func (o *ConfigOptimizer) evaluate(loc models.Location, base models.PanelConfiguration, weather models.WeatherSnapshot, at time.Time, cand candidate) (float64, error) {
	panel := base
	panel.TiltAngleDeg = cand.tilt
	panel.AzimuthAngleDeg = cand.azimuth

	fv, err := o.features.Build(loc, panel, weather, at)
	if err != nil {
		return 0, err
	}
	output, _, err := o.predictor.Predict(fv)
	return output, err
}

// reduceMax selects the maximum-output evaluation with a deterministic
// tie-break: among candidates within epsilon of the maximum, the one closest
// in angle space to the current configuration wins when one is supplied,
// otherwise the first in ascending (tilt, azimuth) order.
func reduceMax(evaluations []evaluation, current *models.PanelConfiguration) evaluation {
	max := math.Inf(-1)
	for _, e := range evaluations {
		if e.output > max {
			max = e.output
		}
	}

	epsilon := 1e-9 + math.Abs(max)*1e-6
	ties := make([]evaluation, 0, 4)
	for _, e := range evaluations {
		if max-e.output <= epsilon {
			ties = append(ties, e)
		}
	}

	sort.Slice(ties, func(i, j int) bool {
		if current != nil {
			di := angleDistance(ties[i].candidate, *current)
			dj := angleDistance(ties[j].candidate, *current)
			if di != dj {
				return di < dj
			}
		}
		if ties[i].tilt != ties[j].tilt {
			return ties[i].tilt < ties[j].tilt
		}
		return ties[i].azimuth < ties[j].azimuth
	})

	return ties[0]
}

func angleDistance(c candidate, cfg models.PanelConfiguration) float64 {
	dt := c.tilt - cfg.TiltAngleDeg
	da := c.azimuth - cfg.AzimuthAngleDeg
	return math.Hypot(dt, da)
}

// applyBaseline evaluates the supplied current configuration under the same
// weather and enforces the monotonic-improvement invariant: the search never
// reports a point worse than the baseline.
func (o *ConfigOptimizer) applyBaseline(loc models.Location, current models.PanelConfiguration, weather models.WeatherSnapshot, at time.Time, result *models.OptimizationResult) error {
	if err := current.Validate(); err != nil {
		return err
	}

	fv, err := o.features.Build(loc, current, weather, at)
	if err != nil {
		return err
	}
	baselineOutput, _, err := o.predictor.Predict(fv)
	if err != nil {
		return err
	}

	if result.OptimalOutputKWh < baselineOutput {
		result.OptimalTiltDeg = current.TiltAngleDeg
		result.OptimalAzimuthDeg = current.AzimuthAngleDeg
		result.OptimalOutputKWh = baselineOutput
	}

	cfg := current
	result.Baseline = &cfg
	result.BaselineOutputKWh = &baselineOutput

	if baselineOutput > 0 {
		pct := (result.OptimalOutputKWh - baselineOutput) / baselineOutput * 100
		result.ImprovementPct = &pct
		o.applySavings(result, result.OptimalOutputKWh-baselineOutput)
	}
	return nil
}

// applySavings estimates annual savings from the daily output gain when a
// tariff is configured.
func (o *ConfigOptimizer) applySavings(result *models.OptimizationResult, dailyGainKWh float64) {
	if o.tariff.PricePerKWh == "" {
		return
	}
	price, err := decimal.NewFromString(o.tariff.PricePerKWh)
	if err != nil {
		o.logger.WithError(err).Warn("Invalid tariff price, skipping savings estimate")
		return
	}

	savings := decimal.NewFromFloat(dailyGainKWh).
		Mul(decimal.NewFromInt(365)).
		Mul(price).
		Round(2)
	result.AnnualSavings = &savings
	result.SavingsCurrency = o.tariff.Currency
}
