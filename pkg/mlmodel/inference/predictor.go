// Package inference scores single trips with a trained pipeline.
package inference

import (
	"fmt"
	"io"

	"github.com/wwdelhi/congestion/pkg/features"
	"github.com/wwdelhi/congestion/pkg/mlmodel/training"
	"github.com/wwdelhi/congestion/pkg/models"
)

// ClassProbability is the probability of one congestion level
type ClassProbability struct {
	Level       models.CongestionLevel `json:"level"`
	Probability float64                `json:"probability"`
}

// Prediction is the scored result for one trip
type Prediction struct {
	Level         models.CongestionLevel `json:"level"`
	Probabilities []ClassProbability     `json:"probabilities"` // Ordinal order
}

// Predictor pairs a fitted schema with the pipeline trained on it
type Predictor struct {
	Schema   *features.Schema
	Pipeline *training.Pipeline
}

// NewPredictor checks that the pipeline was trained on the schema's columns
func NewPredictor(schema *features.Schema, pipeline *training.Pipeline) (*Predictor, error) {
	if schema == nil || pipeline == nil {
		return nil, fmt.Errorf("predictor needs a schema and a pipeline")
	}
	if err := schema.Check(pipeline.Features); err != nil {
		return nil, err
	}
	if !pipeline.Classifier.Fitted() {
		return nil, training.ErrNotFitted
	}
	return &Predictor{Schema: schema, Pipeline: pipeline}, nil
}

// Predict encodes trip through the schema and scores it
func (p *Predictor) Predict(trip models.Trip) (*Prediction, error) {
	row, err := p.Schema.Encode(trip)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trip: %w", err)
	}
	if err := p.Schema.Check(row.Columns); err != nil {
		return nil, err
	}

	probs, err := p.Pipeline.PredictProba(row.Values)
	if err != nil {
		return nil, fmt.Errorf("failed to score trip: %w", err)
	}

	classes := p.Pipeline.Classes()
	pred := &Prediction{Probabilities: make([]ClassProbability, len(classes))}
	best := 0
	for i, c := range classes {
		pred.Probabilities[i] = ClassProbability{
			Level:       models.CongestionLevel(c),
			Probability: probs[i],
		}
		if probs[i] > probs[best] {
			best = i
		}
	}
	pred.Level = models.CongestionLevel(classes[best])
	return pred, nil
}

// Format writes the predicted label and every class probability as a
// percentage with two decimals.
func (p *Prediction) Format(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Prediction: %s\n", p.Level); err != nil {
		return err
	}
	for _, cp := range p.Probabilities {
		if _, err := fmt.Fprintf(w, "%s: %.2f%%\n", cp.Level, cp.Probability*100); err != nil {
			return err
		}
	}
	return nil
}
