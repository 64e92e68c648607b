package ordinal

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/wwdelhi/congestion/pkg/logger"
)

var levels = []string{"Low", "Medium", "High", "Very High"}

// latentData draws y from a cumulative logit with a positive effect on the
// first feature, a negative one on the second and none on the third.
func latentData(n int, seed int64) ([][]float64, []int) {
	r := rand.New(rand.NewSource(seed))
	cuts := []float64{-1, 0.5, 2}
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		x := []float64{r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}
		u := r.Float64()
		latent := 1.5*x[0] - 1.0*x[1] + math.Log(u/(1-u))
		k := 0
		for k < len(cuts) && latent > cuts[k] {
			k++
		}
		X[i] = x
		y[i] = k
	}
	return X, y
}

func TestOrderedLogit_Fit(t *testing.T) {
	X, y := latentData(800, 3)
	model := NewOrderedLogit([]string{"signal_up", "signal_down", "noise"}, levels, 1000, nil)

	summary, err := model.Fit(X, y)
	require.NoError(t, err)
	assert.True(t, summary.Converged)
	assert.Equal(t, 800, summary.NumObs)
	assert.Equal(t, 3, summary.DFModel)
	assert.Equal(t, 800-6, summary.DFResid)

	names := make([]string, len(summary.Coefficients))
	for i, c := range summary.Coefficients {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"signal_up", "signal_down", "noise", "Low/Medium", "Medium/High", "High/Very High"}, names)

	up, _ := summary.Coefficient("signal_up")
	down, _ := summary.Coefficient("signal_down")
	noise, _ := summary.Coefficient("noise")
	assert.Greater(t, up.Estimate, 0.0)
	assert.Less(t, down.Estimate, 0.0)
	assert.InDelta(t, 1.5, up.Estimate, 0.4)
	assert.Less(t, up.PValue, 0.001)
	assert.Less(t, down.PValue, 0.001)
	assert.Less(t, math.Abs(noise.Z), math.Abs(up.Z))

	for _, c := range summary.Coefficients {
		assert.GreaterOrEqual(t, c.PValue, 0.0, c.Name)
		assert.LessOrEqual(t, c.PValue, 1.0, c.Name)
		assert.Greater(t, c.StdErr, 0.0, c.Name)
		assert.Less(t, c.Lower, c.Estimate, c.Name)
		assert.Greater(t, c.Upper, c.Estimate, c.Name)
	}

	require.Len(t, summary.Cutpoints, 3)
	assert.Less(t, summary.Cutpoints[0], summary.Cutpoints[1])
	assert.Less(t, summary.Cutpoints[1], summary.Cutpoints[2])
	assert.InDelta(t, -1.0, summary.Cutpoints[0], 0.4)

	assert.Less(t, summary.LogLikelihood, 0.0)
	assert.InDelta(t, -2*summary.LogLikelihood+12, summary.AIC, 1e-9)
}

func TestOrderedLogit_Gradient(t *testing.T) {
	X, y := latentData(50, 5)
	model := NewOrderedLogit([]string{"a", "b", "c"}, levels, 100, nil)
	p, err := model.newProblem(X, y)
	require.NoError(t, err)

	theta := []float64{0.3, -0.2, 0.1, -0.5, 0.2, -0.1}
	analytic := make([]float64, len(theta))
	p.negGradient(analytic, theta)

	numeric := fd.Gradient(nil, func(x []float64) float64 {
		return -p.logLikelihood(x)
	}, theta, &fd.Settings{Formula: fd.Central})

	assert.InDeltaSlice(t, numeric, analytic, 1e-4)
}

func TestOrderedLogit_AbsentLevel(t *testing.T) {
	X, y := latentData(300, 9)
	for i := range y {
		if y[i] == 2 {
			y[i] = 3
		}
	}

	summary, err := NewOrderedLogit([]string{"a", "b", "c"}, levels, 1000, nil).Fit(X, y)
	require.NoError(t, err)

	_, ok := summary.Coefficient("Medium/Very High")
	assert.True(t, ok)
	assert.Len(t, summary.Cutpoints, 2)
}

func TestOrderedLogit_Errors(t *testing.T) {
	model := NewOrderedLogit([]string{"a"}, levels, 100, nil)

	_, err := model.Fit(nil, nil)
	assert.Error(t, err)

	_, err = model.Fit([][]float64{{1}, {2}}, []int{0})
	assert.Error(t, err)

	_, err = model.Fit([][]float64{{1}, {2}}, []int{0, 7})
	assert.Error(t, err)

	_, err = model.Fit([][]float64{{1}, {2}}, []int{1, 1})
	assert.Error(t, err, "single level")

	_, err = model.Fit([][]float64{{math.NaN()}, {2}}, []int{0, 1})
	assert.Error(t, err)

	_, err = model.Fit([][]float64{{1, 2}, {2, 3}}, []int{0, 1})
	assert.Error(t, err)
}

func TestSummary_Write(t *testing.T) {
	X, y := latentData(300, 11)
	summary, err := NewOrderedLogit([]string{"distance_km", "b", "c"}, levels, 1000, nil).Fit(X, y)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, summary.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "Log-Likelihood")
	assert.Contains(t, out, "P>|z|")
	assert.Contains(t, out, "distance_km")
	assert.Contains(t, out, "High/Very High")
}

func TestOrderedLogit_IterationLimit(t *testing.T) {
	var logs bytes.Buffer
	log, err := logger.New(logger.Options{Level: "warn", Format: "json", Output: &logs})
	require.NoError(t, err)

	X, y := latentData(300, 5)
	summary, err := NewOrderedLogit([]string{"a", "b", "c"}, levels, 1, log).Fit(X, y)
	require.NoError(t, err)
	require.NoError(t, log.Sync())

	assert.False(t, summary.Converged)
	assert.Equal(t, "IterationLimit", summary.Status)
	assert.Contains(t, logs.String(), "Ordered logit did not converge")
	assert.Contains(t, logs.String(), `"level":"warn"`)

	var buf bytes.Buffer
	require.NoError(t, summary.Write(&buf))
	assert.Contains(t, buf.String(), "Converged: false (IterationLimit")
}
