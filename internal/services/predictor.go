package services

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/solarcast-ai/solarcast-go/internal/config"
	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// oodConfidencePenalty is the multiplicative confidence penalty applied per
// feature outside the training data's observed range.
const oodConfidencePenalty = 0.8

// TrainedModel holds the ensemble parameters together with the scaler state
// and training metadata. Instances are immutable once built; retraining
// produces a new instance that replaces the active one atomically.
type TrainedModel struct {
	// Weights holds one coefficient vector per ensemble member, intercept
	// first, in feature order.
	Weights     [][]float64          `json:"weights"`
	FeatureMean []float64            `json:"feature_mean"`
	FeatureStd  []float64            `json:"feature_std"`
	FeatureMin  []float64            `json:"feature_min"`
	FeatureMax  []float64            `json:"feature_max"`
	Metadata    models.ModelMetadata `json:"metadata"`
}

// PowerPredictor maps feature vectors to expected power output with a
// confidence score. The active model is read-mostly shared state: concurrent
// predictions proceed under a read lock and a retrain swaps the model
// reference in one step, so no reader ever observes a partial update.
type PowerPredictor struct {
	mu     sync.RWMutex
	active *TrainedModel

	cfg    config.ModelConfig
	store  ModelStore
	logger *logrus.Logger
}

// NewPowerPredictor creates a predictor. store may be nil when persistence
// is handled elsewhere.
func NewPowerPredictor(cfg config.ModelConfig, store ModelStore, logger *logrus.Logger) *PowerPredictor {
	return &PowerPredictor{cfg: cfg, store: store, logger: logger}
}

// LoadFromStore installs the persisted model as the active one
func (p *PowerPredictor) LoadFromStore() error {
	if p.store == nil {
		return ErrModelNotLoaded
	}
	model, err := p.store.Load()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.active = model
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"trained_at":   model.Metadata.TrainedAt,
		"sample_count": model.Metadata.SampleCount,
		"mae":          model.Metadata.MAE,
	}).Info("Loaded trained model")
	return nil
}

// Loaded reports whether a model is active
func (p *PowerPredictor) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active != nil
}

// Predict returns the expected output in kWh/day and a confidence score in
// [0, 1]. Confidence is derived from ensemble agreement and reduced when
// features fall outside the training data's observed range.
func (p *PowerPredictor) Predict(fv models.FeatureVector) (float64, float64, error) {
	p.mu.RLock()
	model := p.active
	p.mu.RUnlock()

	if model == nil {
		return 0, 0, ErrModelNotLoaded
	}

	x := model.standardize(fv)

	predictions := make([]float64, len(model.Weights))
	for i, w := range model.Weights {
		predictions[i] = dot(w, x)
	}

	mean, err := stats.Mean(predictions)
	if err != nil {
		return 0, 0, &PredictionError{Reason: "empty ensemble"}
	}

	output := mean
	if output < 0 {
		output = 0
	}

	confidence := ensembleConfidence(predictions, mean)
	for i := 0; i < models.FeatureCount; i++ {
		if fv[i] < model.FeatureMin[i] || fv[i] > model.FeatureMax[i] {
			confidence *= oodConfidencePenalty
		}
	}

	return output, clamp01(confidence), nil
}

// Info returns the active model's metadata
func (p *PowerPredictor) Info() (models.ModelMetadata, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.active == nil {
		return models.ModelMetadata{}, ErrModelNotLoaded
	}
	return p.active.Metadata, nil
}

// Retrain fits a new ensemble on the dataset, validates it against a
// held-out split and atomically replaces the active model on success. On any
// failure the prior model remains active. The new model is rejected when its
// held-out MAE exceeds the active model's by more than the configured
// tolerance.
func (p *PowerPredictor) Retrain(ds Dataset, force bool) (*TrainedModel, error) {
	n := len(ds.Samples)
	if n < p.cfg.MinTrainingSamples && !force {
		return nil, &InsufficientDataError{Samples: n, Required: p.cfg.MinTrainingSamples}
	}

	holdout := int(float64(n) * p.cfg.HoldoutFraction)
	if holdout < 1 {
		holdout = 1
	}
	if n-holdout < models.FeatureCount+1 {
		return nil, &TrainingError{Reason: "dataset too small to fit after held-out split"}
	}

	rng := rand.New(rand.NewSource(p.cfg.TrainingSeed))
	indices := rng.Perm(n)
	trainIdx, holdoutIdx := indices[holdout:], indices[:holdout]

	model, err := p.fit(ds, trainIdx, rng)
	if err != nil {
		return nil, err
	}

	mae, r2 := p.evaluate(model, ds, holdoutIdx)

	p.mu.RLock()
	active := p.active
	p.mu.RUnlock()

	if active != nil && mae > active.Metadata.MAE*(1+p.cfg.RegressionTolerance) {
		err := &AccuracyRegressionError{NewMAE: mae, ActiveMAE: active.Metadata.MAE, Tolerance: p.cfg.RegressionTolerance}
		p.logger.WithFields(logrus.Fields{
			"new_mae":    mae,
			"active_mae": active.Metadata.MAE,
		}).Warn("Retrained model rejected, keeping active model")
		return nil, err
	}

	model.Metadata = models.ModelMetadata{
		TrainedAt:    time.Now().UTC(),
		SampleCount:  n,
		FeatureOrder: models.FeatureOrder(),
		MAE:          mae,
		R2:           r2,
		EnsembleSize: len(model.Weights),
	}

	p.mu.Lock()
	p.active = model
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"sample_count": n,
		"mae":          mae,
		"r2":           r2,
	}).Info("Model retrained and activated")

	if p.store != nil {
		if err := p.store.Save(model); err != nil {
			p.logger.WithError(err).Warn("Failed to persist trained model")
		}
	}

	return model, nil
}

// fit trains the ensemble: each member is a ridge regression fitted to a
// bootstrap resample of the training split, solved by least squares over the
// lambda-augmented design matrix.
func (p *PowerPredictor) fit(ds Dataset, trainIdx []int, rng *rand.Rand) (*TrainedModel, error) {
	model := &TrainedModel{}
	model.computeScaler(ds, trainIdx)

	ensembleSize := p.cfg.EnsembleSize
	if ensembleSize < 2 {
		ensembleSize = 2
	}

	cols := models.FeatureCount + 1 // intercept first
	model.Weights = make([][]float64, ensembleSize)

	for member := 0; member < ensembleSize; member++ {
		rows := len(trainIdx)
		// Ridge regularization as sqrt(lambda) rows appended to the design
		// matrix, intercept left unpenalized.
		design := mat.NewDense(rows+models.FeatureCount, cols, nil)
		target := mat.NewVecDense(rows+models.FeatureCount, nil)

		for r := 0; r < rows; r++ {
			sample := ds.Samples[trainIdx[rng.Intn(rows)]]
			x := model.standardize(sample.Features)
			design.SetRow(r, x)
			target.SetVec(r, sample.OutputKWh)
		}

		sqrtLambda := math.Sqrt(p.cfg.RidgeLambda)
		for f := 0; f < models.FeatureCount; f++ {
			design.Set(rows+f, f+1, sqrtLambda)
		}

		var qr mat.QR
		qr.Factorize(design)
		var weights mat.VecDense
		if err := qr.SolveVecTo(&weights, false, target); err != nil {
			return nil, &TrainingError{Reason: "least squares solve did not converge", Err: err}
		}

		model.Weights[member] = make([]float64, cols)
		copy(model.Weights[member], weights.RawVector().Data)
	}

	return model, nil
}

// evaluate computes MAE and R² over the held-out indices
func (p *PowerPredictor) evaluate(model *TrainedModel, ds Dataset, holdoutIdx []int) (float64, float64) {
	absErrors := make([]float64, 0, len(holdoutIdx))
	actuals := make([]float64, 0, len(holdoutIdx))
	var ssRes float64

	for _, idx := range holdoutIdx {
		sample := ds.Samples[idx]
		x := model.standardize(sample.Features)
		var sum float64
		for _, w := range model.Weights {
			sum += dot(w, x)
		}
		predicted := sum / float64(len(model.Weights))
		if predicted < 0 {
			predicted = 0
		}

		diff := predicted - sample.OutputKWh
		absErrors = append(absErrors, math.Abs(diff))
		actuals = append(actuals, sample.OutputKWh)
		ssRes += diff * diff
	}

	mae, _ := stats.Mean(absErrors)
	meanActual, _ := stats.Mean(actuals)

	var ssTot float64
	for _, y := range actuals {
		ssTot += (y - meanActual) * (y - meanActual)
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	return mae, r2
}

// computeScaler derives per-feature mean, std and observed range from the
// training split.
func (m *TrainedModel) computeScaler(ds Dataset, trainIdx []int) {
	m.FeatureMean = make([]float64, models.FeatureCount)
	m.FeatureStd = make([]float64, models.FeatureCount)
	m.FeatureMin = make([]float64, models.FeatureCount)
	m.FeatureMax = make([]float64, models.FeatureCount)

	for f := 0; f < models.FeatureCount; f++ {
		values := make([]float64, len(trainIdx))
		for i, idx := range trainIdx {
			values[i] = ds.Samples[idx].Features[f]
		}
		mean, _ := stats.Mean(values)
		std, _ := stats.StandardDeviation(values)
		min, _ := stats.Min(values)
		max, _ := stats.Max(values)

		if std == 0 {
			std = 1
		}
		m.FeatureMean[f] = mean
		m.FeatureStd[f] = std
		m.FeatureMin[f] = min
		m.FeatureMax[f] = max
	}
}

// standardize scales a feature vector and prepends the intercept term
func (m *TrainedModel) standardize(fv models.FeatureVector) []float64 {
	x := make([]float64, models.FeatureCount+1)
	x[0] = 1
	for f := 0; f < models.FeatureCount; f++ {
		x[f+1] = (fv[f] - m.FeatureMean[f]) / m.FeatureStd[f]
	}
	return x
}

// ensembleConfidence scores agreement across members as 1 - cv, where cv is
// the coefficient of variation of the member predictions.
func ensembleConfidence(predictions []float64, mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	std, err := stats.StandardDeviation(predictions)
	if err != nil {
		return 0
	}
	return clamp01(1 - std/mean)
}

func dot(w, x []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
