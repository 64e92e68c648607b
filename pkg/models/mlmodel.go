package models

import (
	"fmt"
)

// ModelType represents the type of model fitted by a command
type ModelType string

const (
	ModelTypeLogistic     ModelType = "multinomial_logistic" // Predictive classifier
	ModelTypeOrderedLogit ModelType = "ordered_logit"        // Inferential model, never used to predict
)

// TrainingConfig holds configuration for model training
type TrainingConfig struct {
	TestSize         float64 `json:"test_size" yaml:"test_size" env:"TEST_SIZE"`       // e.g., 0.2 for an 80/20 split
	RandomSeed       int64   `json:"random_seed" yaml:"random_seed" env:"RANDOM_SEED"` // For reproducibility
	MaxIterations    int     `json:"max_iterations" yaml:"max_iterations" env:"MAX_ITERATIONS"`
	C                float64 `json:"c" yaml:"c" env:"C"` // Inverse L2 regularisation strength
	CVFolds          int     `json:"cv_folds" yaml:"cv_folds" env:"CV_FOLDS"`
	OverfitThreshold float64 `json:"overfit_threshold" yaml:"overfit_threshold" env:"OVERFIT_THRESHOLD"` // Train-test accuracy gap that flags overfitting
}

// DefaultTrainingConfig returns the training protocol used by the train command
func DefaultTrainingConfig() *TrainingConfig {
	return &TrainingConfig{
		TestSize:         0.2,
		RandomSeed:       42,
		MaxIterations:    1000,
		C:                1.0,
		CVFolds:          5,
		OverfitThreshold: 0.10,
	}
}

// Validate checks if the TrainingConfig is usable
func (c *TrainingConfig) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0, 1), got %v", c.TestSize)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.C <= 0 {
		return fmt.Errorf("c must be positive, got %v", c.C)
	}
	if c.CVFolds < 2 {
		return fmt.Errorf("cv_folds must be at least 2, got %d", c.CVFolds)
	}
	if c.OverfitThreshold < 0 {
		return fmt.Errorf("overfit_threshold must not be negative, got %v", c.OverfitThreshold)
	}
	return nil
}

// PerformanceMetrics holds model performance metrics
type PerformanceMetrics struct {
	Accuracy        float64 `json:"accuracy"`
	MacroPrecision  float64 `json:"macro_precision"`
	MacroRecall     float64 `json:"macro_recall"`
	MacroF1         float64 `json:"macro_f1"`
	ConfusionMatrix [][]int `json:"confusion_matrix,omitempty"` // Rows are actual levels, columns predicted
}
