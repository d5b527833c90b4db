package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ModelStore persists trained models. The engine only requires that Load and
// Save round-trip the full parameter set and metadata losslessly.
type ModelStore interface {
	Load() (*TrainedModel, error)
	Save(*TrainedModel) error
}

// FileModelStore persists the model as JSON on disk, mirroring the
// load-at-startup, save-after-retrain lifecycle.
type FileModelStore struct {
	path string
}

// NewFileModelStore creates a file-backed model store
func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{path: path}
}

// Load reads the persisted model
func (s *FileModelStore) Load() (*TrainedModel, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var model TrainedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to decode model file: %w", err)
	}
	if len(model.Weights) == 0 {
		return nil, fmt.Errorf("model file %s holds no ensemble weights", s.path)
	}
	return &model, nil
}

// Save writes the model atomically: a temp file in the same directory is
// renamed over the target so a crashed save never leaves a truncated model.
func (s *FileModelStore) Save(model *TrainedModel) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "model-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close model file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace model file: %w", err)
	}
	return nil
}
