package training

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// gradientTolerance is the infinity norm of the gradient below which a fit
// counts as converged.
const gradientTolerance = 1e-6

// LogisticRegression is a multinomial (softmax) logistic classifier with an
// L2 penalty on the weights. Intercepts are not penalised.
type LogisticRegression struct {
	C             float64 `json:"c"`
	MaxIterations int     `json:"max_iterations"`

	Classes    []int      `json:"classes"`
	Weights    *mat.Dense `json:"-"` // classes x features
	Intercepts []float64  `json:"intercepts"`

	Converged  bool   `json:"converged"`
	Iterations int    `json:"iterations"`
	Status     string `json:"status"`
}

// NewLogisticRegression creates an unfitted classifier
func NewLogisticRegression(c float64, maxIterations int) *LogisticRegression {
	return &LogisticRegression{C: c, MaxIterations: maxIterations}
}

// Fit estimates the weights by minimising the mean cross-entropy plus
// ||W||^2 / (2 C n) with L-BFGS. Hitting the iteration limit is not an error;
// it leaves Converged false.
func (lr *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if lr.C <= 0 {
		return fmt.Errorf("regularisation strength C must be positive, got %g", lr.C)
	}

	lr.Classes = uniqueSorted(y)
	if len(lr.Classes) < 2 {
		return fmt.Errorf("need at least 2 classes to fit, got %d", len(lr.Classes))
	}

	classIndex := make(map[int]int, len(lr.Classes))
	for k, c := range lr.Classes {
		classIndex[c] = k
	}
	target := make([]int, len(y))
	for i, label := range y {
		target[i] = classIndex[label]
	}

	n := len(X)
	p := len(X[0])
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), p)
		}
	}
	k := len(lr.Classes)
	stride := p + 1
	penalty := 1 / (lr.C * float64(n))

	// scratch is reused across evaluations; the problem is not evaluated
	// concurrently
	scores := make([]float64, k)

	loss := func(theta []float64) float64 {
		total := 0.0
		for i, row := range X {
			linearScores(scores, theta, row, k, stride)
			total += floats.LogSumExp(scores) - scores[target[i]]
		}
		total /= float64(n)
		reg := 0.0
		for c := 0; c < k; c++ {
			w := theta[c*stride : c*stride+p]
			reg += floats.Dot(w, w)
		}
		return total + 0.5*penalty*reg
	}

	grad := func(g, theta []float64) {
		for j := range g {
			g[j] = 0
		}
		for i, row := range X {
			linearScores(scores, theta, row, k, stride)
			softmaxInPlace(scores)
			for c := 0; c < k; c++ {
				d := scores[c]
				if c == target[i] {
					d -= 1
				}
				d /= float64(n)
				base := c * stride
				floats.AddScaled(g[base:base+p], d, row)
				g[base+p] += d
			}
		}
		for c := 0; c < k; c++ {
			base := c * stride
			floats.AddScaled(g[base:base+p], penalty, theta[base:base+p])
		}
	}

	problem := optimize.Problem{Func: loss, Grad: grad}
	settings := &optimize.Settings{
		MajorIterations:   lr.MaxIterations,
		GradientThreshold: gradientTolerance,
	}

	init := make([]float64, k*stride)
	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("optimisation failed: %w", err)
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return fmt.Errorf("optimisation diverged: status %s", result.Status)
	}

	// hitting MajorIterations stops with a nil error
	lr.Converged = err == nil && result.Status != optimize.IterationLimit
	lr.Iterations = result.MajorIterations
	lr.Status = result.Status.String()

	lr.Weights = mat.NewDense(k, p, nil)
	lr.Intercepts = make([]float64, k)
	for c := 0; c < k; c++ {
		base := c * stride
		lr.Weights.SetRow(c, result.X[base:base+p])
		lr.Intercepts[c] = result.X[base+p]
	}
	return nil
}

// Fitted reports whether Fit has succeeded
func (lr *LogisticRegression) Fitted() bool {
	return lr.Weights != nil
}

// NumFeatures is the input width the classifier was fitted on
func (lr *LogisticRegression) NumFeatures() int {
	if lr.Weights == nil {
		return 0
	}
	_, p := lr.Weights.Dims()
	return p
}

// PredictProba returns one probability per class in Classes order
func (lr *LogisticRegression) PredictProba(x []float64) ([]float64, error) {
	if !lr.Fitted() {
		return nil, ErrNotFitted
	}
	k, p := lr.Weights.Dims()
	if len(x) != p {
		return nil, fmt.Errorf("expected %d features, got %d", p, len(x))
	}
	probs := make([]float64, k)
	for c := 0; c < k; c++ {
		probs[c] = floats.Dot(lr.Weights.RawRowView(c), x) + lr.Intercepts[c]
	}
	softmaxInPlace(probs)
	return probs, nil
}

// Predict returns the most probable class, the lowest class on ties
func (lr *LogisticRegression) Predict(x []float64) (int, error) {
	probs, err := lr.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return lr.Classes[best], nil
}

// ErrNotFitted is returned when predicting with an unfitted model
var ErrNotFitted = errors.New("model is not fitted")

func linearScores(dst, theta, row []float64, k, stride int) {
	p := stride - 1
	for c := 0; c < k; c++ {
		base := c * stride
		dst[c] = floats.Dot(theta[base:base+p], row) + theta[base+p]
	}
}

// softmaxInPlace replaces scores with their softmax
func softmaxInPlace(scores []float64) {
	lse := floats.LogSumExp(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - lse)
	}
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
