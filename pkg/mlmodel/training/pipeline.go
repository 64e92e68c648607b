package training

import (
	"fmt"

	"github.com/wwdelhi/congestion/pkg/features"
)

// Pipeline standardises the numeric columns and then classifies. The scaler
// is fitted on the rows passed to Fit and reused unchanged afterwards.
type Pipeline struct {
	Features   []string                 `json:"features"`
	Scaler     *features.StandardScaler `json:"scaler"`
	Classifier *LogisticRegression      `json:"classifier"`
}

// NewPipeline creates an unfitted pipeline over the named feature columns.
// numeric lists the positions the scaler standardises.
func NewPipeline(featureNames []string, numeric []int, c float64, maxIterations int) *Pipeline {
	return &Pipeline{
		Features:   append([]string(nil), featureNames...),
		Scaler:     features.NewStandardScaler(numeric),
		Classifier: NewLogisticRegression(c, maxIterations),
	}
}

// Clone returns a fresh unfitted pipeline with the same settings
func (p *Pipeline) Clone() *Pipeline {
	return NewPipeline(p.Features, p.Scaler.Columns, p.Classifier.C, p.Classifier.MaxIterations)
}

// Fit fits the scaler and then the classifier on the scaled rows
func (p *Pipeline) Fit(X [][]float64, y []int) error {
	if len(X) > 0 && len(X[0]) != len(p.Features) {
		return fmt.Errorf("expected %d features, got %d", len(p.Features), len(X[0]))
	}
	scaled, err := p.Scaler.FitTransform(X)
	if err != nil {
		return fmt.Errorf("failed to fit scaler: %w", err)
	}
	if err := p.Classifier.Fit(scaled, y); err != nil {
		return fmt.Errorf("failed to fit classifier: %w", err)
	}
	return nil
}

// Classes returns the class codes in probability order
func (p *Pipeline) Classes() []int {
	return append([]int(nil), p.Classifier.Classes...)
}

// PredictProba scales x and returns per-class probabilities
func (p *Pipeline) PredictProba(x []float64) ([]float64, error) {
	scaled, err := p.Scaler.TransformRow(x)
	if err != nil {
		return nil, err
	}
	return p.Classifier.PredictProba(scaled)
}

// Predict scales x and returns the most probable class
func (p *Pipeline) Predict(x []float64) (int, error) {
	scaled, err := p.Scaler.TransformRow(x)
	if err != nil {
		return 0, err
	}
	return p.Classifier.Predict(scaled)
}

// PredictAll predicts every row of X
func (p *Pipeline) PredictAll(X [][]float64) ([]int, error) {
	out := make([]int, len(X))
	for i, x := range X {
		pred, err := p.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("prediction failed at index %d: %w", i, err)
		}
		out[i] = pred
	}
	return out, nil
}
