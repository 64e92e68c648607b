package mlmodel

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/wwdelhi/congestion/pkg/config"
	"github.com/wwdelhi/congestion/pkg/features"
	"github.com/wwdelhi/congestion/pkg/logger"
	"github.com/wwdelhi/congestion/pkg/mlmodel/inference"
	"github.com/wwdelhi/congestion/pkg/mlmodel/ordinal"
	"github.com/wwdelhi/congestion/pkg/mlmodel/training"
	"github.com/wwdelhi/congestion/pkg/models"
)

// Service runs the model workflows of the commands on loaded trips
type Service struct {
	cfg   *config.Config
	log   *logger.Logger
	clock clockwork.Clock
}

// NewService creates a new model service
func NewService(cfg *config.Config, log *logger.Logger) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		cfg:   cfg,
		log:   log,
		clock: clockwork.NewRealClock(),
	}
}

// WithClock replaces the clock used to time training
func (s *Service) WithClock(clock clockwork.Clock) *Service {
	s.clock = clock
	return s
}

// TrainedModel is a fitted classifier with the schema it was trained on
type TrainedModel struct {
	Schema        *features.Schema
	Consolidators []*features.Consolidator
	Result        *training.TrainingResult
}

// Predictor returns a single-trip predictor for the model
func (m *TrainedModel) Predictor() (*inference.Predictor, error) {
	return inference.NewPredictor(m.Schema, m.Result.Pipeline)
}

// TrainClassifier consolidates rare categories over all trips, fits the
// feature schema, then splits, trains, evaluates and cross-validates.
func (s *Service) TrainClassifier(trips []models.Trip) (*TrainedModel, error) {
	consolidated, consolidators, err := s.consolidate(trips)
	if err != nil {
		return nil, err
	}

	schema, err := features.FitSchema(consolidated, consolidators...)
	if err != nil {
		return nil, fmt.Errorf("failed to fit feature schema: %w", err)
	}
	X, err := schema.EncodeAll(consolidated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trips: %w", err)
	}
	y, err := features.LabelsOf(consolidated)
	if err != nil {
		return nil, fmt.Errorf("failed to map target: %w", err)
	}
	s.log.Info("Encoded features",
		logger.Int("rows", len(X)),
		logger.Int("features", schema.Width()))

	cfg := s.cfg.Training
	trainer := training.NewTrainer(&cfg, s.log)
	trainer.Clock = s.clock
	result, err := trainer.Train(X, y, schema.Columns(), schema.NumericIndices())
	if err != nil {
		return nil, err
	}

	return &TrainedModel{
		Schema:        schema,
		Consolidators: consolidators,
		Result:        result,
	}, nil
}

func (s *Service) consolidate(trips []models.Trip) ([]models.Trip, []*features.Consolidator, error) {
	cc := s.cfg.Consolidation
	var consolidators []*features.Consolidator
	out := trips
	for _, column := range cc.Columns {
		c := features.NewConsolidator(column, cc.Threshold, cc.Other)
		if err := c.Fit(out); err != nil {
			return nil, nil, fmt.Errorf("failed to consolidate %s: %w", column, err)
		}
		next, err := c.Apply(out)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to consolidate %s: %w", column, err)
		}
		if collapsed := c.Collapsed(); len(collapsed) > 0 {
			s.log.Info("Consolidated rare categories",
				logger.String("column", column),
				logger.Strings("values", collapsed),
				logger.String("into", cc.Other))
		}
		out = next
		consolidators = append(consolidators, c)
	}
	return out, consolidators, nil
}

// FitOrdinal encodes every trip without consolidation, standardises the
// numeric columns over the full data and fits the ordered logit.
func (s *Service) FitOrdinal(trips []models.Trip) (*ordinal.Summary, error) {
	schema, err := features.FitSchema(trips)
	if err != nil {
		return nil, fmt.Errorf("failed to fit feature schema: %w", err)
	}
	X, err := schema.EncodeAll(trips)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trips: %w", err)
	}
	y, err := features.LabelsOf(trips)
	if err != nil {
		return nil, fmt.Errorf("failed to map target: %w", err)
	}

	scaled, err := features.NewStandardScaler(schema.NumericIndices()).FitTransform(X)
	if err != nil {
		return nil, err
	}

	model := ordinal.NewOrderedLogit(schema.Columns(), models.LevelNames(), s.cfg.Ordinal.MaxIterations, s.log)
	summary, err := model.Fit(scaled, y)
	if err != nil {
		return nil, fmt.Errorf("failed to fit ordered logit: %w", err)
	}
	s.log.Info("Ordered logit fitted",
		logger.Float("log_likelihood", summary.LogLikelihood),
		logger.Bool("converged", summary.Converged))
	return summary, nil
}
