// Package training fits and evaluates the congestion classifier: a
// standardising pipeline around multinomial logistic regression, a seeded
// stratified train/test split, stratified k-fold cross-validation and the
// classification metrics printed by the train command.
package training

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wwdelhi/congestion/pkg/logger"
	"github.com/wwdelhi/congestion/pkg/models"
)

// TrainingResult holds the results of a training run
type TrainingResult struct {
	Pipeline     *Pipeline               `json:"-"`
	TrainMetrics *EvaluationMetrics      `json:"train_metrics"`
	TestMetrics  *EvaluationMetrics      `json:"test_metrics"`
	Gap          float64                 `json:"gap"` // Train accuracy minus test accuracy
	Overfitting  bool                    `json:"overfitting"`
	CV           *CrossValidationResults `json:"cv,omitempty"`
	TrainingRows int                     `json:"training_rows"`
	TestRows     int                     `json:"test_rows"`
	Duration     time.Duration           `json:"duration"`
	ModelType    models.ModelType        `json:"model_type"`
}

// Trainer orchestrates the training process
type Trainer struct {
	Config *models.TrainingConfig
	Clock  clockwork.Clock
	log    *logger.Logger
}

// NewTrainer creates a new trainer with the given configuration
func NewTrainer(config *models.TrainingConfig, log *logger.Logger) *Trainer {
	if config == nil {
		config = models.DefaultTrainingConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Trainer{
		Config: config,
		Clock:  clockwork.NewRealClock(),
		log:    log.Component("trainer"),
	}
}

// Train splits the data, fits a pipeline on the training part, scores both
// parts and cross-validates on the training part.
func (t *Trainer) Train(X [][]float64, y []int, featureNames []string, numeric []int) (*TrainingResult, error) {
	if len(X) == 0 || len(y) == 0 {
		return nil, fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return nil, fmt.Errorf("feature names must match number of features")
	}
	if err := t.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}

	start := t.Clock.Now()

	trainX, trainY, testX, testY, err := t.TrainTestSplit(X, y)
	if err != nil {
		return nil, fmt.Errorf("failed to split data: %w", err)
	}
	t.log.Info("Split data",
		logger.Int("train_rows", len(trainX)),
		logger.Int("test_rows", len(testX)))

	pipeline := NewPipeline(featureNames, numeric, t.Config.C, t.Config.MaxIterations)
	if err := pipeline.Fit(trainX, trainY); err != nil {
		return nil, err
	}
	if !pipeline.Classifier.Converged {
		t.log.Warn("Classifier did not converge",
			logger.Int("iterations", pipeline.Classifier.Iterations),
			logger.String("status", pipeline.Classifier.Status))
	}

	trainMetrics, err := Evaluate(pipeline, trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate on training set: %w", err)
	}
	testMetrics, err := Evaluate(pipeline, testX, testY)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate on test set: %w", err)
	}

	cv, err := CrossValidate(pipeline, trainX, trainY, t.Config.CVFolds)
	if err != nil {
		return nil, fmt.Errorf("cross-validation failed: %w", err)
	}

	gap := trainMetrics.Accuracy - testMetrics.Accuracy
	result := &TrainingResult{
		Pipeline:     pipeline,
		TrainMetrics: trainMetrics,
		TestMetrics:  testMetrics,
		Gap:          gap,
		Overfitting:  gap > t.Config.OverfitThreshold,
		CV:           cv,
		TrainingRows: len(trainX),
		TestRows:     len(testX),
		Duration:     t.Clock.Since(start),
		ModelType:    models.ModelTypeLogistic,
	}

	t.log.Info("Training completed",
		logger.Float("train_accuracy", trainMetrics.Accuracy),
		logger.Float("test_accuracy", testMetrics.Accuracy),
		logger.Float("cv_mean_accuracy", cv.MeanAccuracy),
		logger.Seconds("duration", result.Duration.Seconds()))

	return result, nil
}

// TrainTestSplit splits data into training and test sets preserving class
// proportions. The test set holds ceil(TestSize * n) rows shared between
// classes by largest remainder; the same seed and input give the same split.
func (t *Trainer) TrainTestSplit(X [][]float64, y []int) ([][]float64, []int, [][]float64, []int, error) {
	n := len(X)
	if n == 0 {
		return nil, nil, nil, nil, fmt.Errorf("empty data")
	}
	if n != len(y) {
		return nil, nil, nil, nil, fmt.Errorf("X and y must have same number of samples")
	}

	classSamples := make(map[int][]int)
	for i, label := range y {
		classSamples[label] = append(classSamples[label], i)
	}
	classes := make([]int, 0, len(classSamples))
	for c, samples := range classSamples {
		if len(samples) < 2 {
			return nil, nil, nil, nil, fmt.Errorf("class %s has %d member, need at least 2 to stratify", className(c), len(samples))
		}
		classes = append(classes, c)
	}
	sort.Ints(classes)

	nTest := int(math.Ceil(t.Config.TestSize * float64(n)))
	if nTest < len(classes) || n-nTest < len(classes) {
		return nil, nil, nil, nil, fmt.Errorf("test size %d of %d rows cannot hold all %d classes on both sides", nTest, n, len(classes))
	}

	counts := make([]int, len(classes))
	for i, c := range classes {
		counts[i] = len(classSamples[c])
	}
	testCounts := allocate(counts, nTest)

	// reseeded per call so a reused Trainer repeats its split
	rng := rand.New(rand.NewSource(t.Config.RandomSeed))

	var trainIndices, testIndices []int
	for i, c := range classes {
		samples := append([]int(nil), classSamples[c]...)
		rng.Shuffle(len(samples), func(a, b int) {
			samples[a], samples[b] = samples[b], samples[a]
		})
		testIndices = append(testIndices, samples[:testCounts[i]]...)
		trainIndices = append(trainIndices, samples[testCounts[i]:]...)
	}

	rng.Shuffle(len(trainIndices), func(a, b int) {
		trainIndices[a], trainIndices[b] = trainIndices[b], trainIndices[a]
	})
	rng.Shuffle(len(testIndices), func(a, b int) {
		testIndices[a], testIndices[b] = testIndices[b], testIndices[a]
	})

	trainX, trainY := selectByIndices(X, y, trainIndices)
	testX, testY := selectByIndices(X, y, testIndices)
	return trainX, trainY, testX, testY, nil
}

// allocate shares total between groups proportionally to counts. Floors are
// topped up one at a time by largest remainder, then by group order.
func allocate(counts []int, total int) []int {
	n := 0
	for _, c := range counts {
		n += c
	}
	out := make([]int, len(counts))
	remainders := make([]float64, len(counts))
	assigned := 0
	for i, c := range counts {
		exact := float64(total) * float64(c) / float64(n)
		out[i] = int(math.Floor(exact))
		remainders[i] = exact - float64(out[i])
		assigned += out[i]
	}

	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for _, i := range order {
		if assigned >= total {
			break
		}
		if out[i] < counts[i] {
			out[i]++
			assigned++
		}
	}
	return out
}

// selectByIndices selects samples from X and y using indices
func selectByIndices(X [][]float64, y []int, indices []int) ([][]float64, []int) {
	selectedX := make([][]float64, len(indices))
	selectedY := make([]int, len(indices))

	for i, idx := range indices {
		selectedX[i] = X[idx]
		selectedY[i] = y[idx]
	}

	return selectedX, selectedY
}
