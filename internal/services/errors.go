package services

import "fmt"

// InsufficientDataError is returned by Retrain when the dataset is smaller
// than the configured minimum and force was not set.
type InsufficientDataError struct {
	Samples  int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: %d samples, %d required", e.Samples, e.Required)
}

// TrainingError is returned when the underlying fit fails
type TrainingError struct {
	Reason string
	Err    error
}

func (e *TrainingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("training failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("training failed: %s", e.Reason)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// AccuracyRegressionError is returned when a retrained model performs worse
// on the held-out split than the active model by more than the tolerance.
// The prior model remains active.
type AccuracyRegressionError struct {
	NewMAE    float64
	ActiveMAE float64
	Tolerance float64
}

func (e *AccuracyRegressionError) Error() string {
	return fmt.Sprintf("retrained model rejected: held-out MAE %.4f exceeds active MAE %.4f beyond tolerance %.0f%%",
		e.NewMAE, e.ActiveMAE, e.Tolerance*100)
}

// PredictionError is returned when a prediction cannot be served, for
// example because no model is loaded. Fatal for the request, not the process.
type PredictionError struct {
	Reason string
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %s", e.Reason)
}

// ErrModelNotLoaded is the PredictionError used before any model is active
var ErrModelNotLoaded = &PredictionError{Reason: "no trained model loaded"}
