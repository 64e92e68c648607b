package inference

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwdelhi/congestion/pkg/features"
	"github.com/wwdelhi/congestion/pkg/mlmodel/training"
	"github.com/wwdelhi/congestion/pkg/models"
	"github.com/wwdelhi/congestion/pkg/synth"
)

func fitPredictor(t *testing.T) *Predictor {
	t.Helper()
	trips := synth.Generate(300, 3)

	schema, err := features.FitSchema(trips)
	require.NoError(t, err)
	X, err := schema.EncodeAll(trips)
	require.NoError(t, err)
	y, err := features.LabelsOf(trips)
	require.NoError(t, err)

	pipeline := training.NewPipeline(schema.Columns(), schema.NumericIndices(), 1.0, 1000)
	require.NoError(t, pipeline.Fit(X, y))

	p, err := NewPredictor(schema, pipeline)
	require.NoError(t, err)
	return p
}

func TestPredictor_Predict(t *testing.T) {
	p := fitPredictor(t)

	pred, err := p.Predict(models.Trip{
		DistanceKm:       15.5,
		AverageSpeedKmph: 25.0,
		Weather:          "Rain",
		TimeOfDay:        "Morning Peak",
		DayOfWeek:        "Weekday",
		RoadType:         "Main Road",
	})
	require.NoError(t, err)
	require.Len(t, pred.Probabilities, 4)

	sum := 0.0
	best := pred.Probabilities[0]
	for i, cp := range pred.Probabilities {
		assert.Equal(t, models.CongestionLevel(i), cp.Level)
		sum += cp.Probability
		if cp.Probability > best.Probability {
			best = cp
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, best.Level, pred.Level)

	var buf bytes.Buffer
	require.NoError(t, pred.Format(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Prediction: "+pred.Level.String(), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Low: "))
	assert.True(t, strings.HasSuffix(lines[4], "%"))
}

func TestPredictor_SpeedOrdering(t *testing.T) {
	p := fitPredictor(t)

	trip := models.Trip{
		DistanceKm: 10,
		Weather:    "Clear",
		TimeOfDay:  "Night",
		DayOfWeek:  "Weekend",
		RoadType:   "Highway",
	}
	trip.AverageSpeedKmph = 70
	fast, err := p.Predict(trip)
	require.NoError(t, err)
	trip.AverageSpeedKmph = 3
	slow, err := p.Predict(trip)
	require.NoError(t, err)

	assert.Less(t, int(fast.Level), int(slow.Level))
}

func TestPredictor_Errors(t *testing.T) {
	p := fitPredictor(t)

	_, err := p.Predict(models.Trip{
		DistanceKm:       5,
		AverageSpeedKmph: 30,
		Weather:          "Snow",
		TimeOfDay:        "Night",
		DayOfWeek:        "Weekday",
		RoadType:         "Main Road",
	})
	assert.ErrorIs(t, err, features.ErrUnseenCategory)

	_, err = p.Predict(models.Trip{DistanceKm: 5, AverageSpeedKmph: 30})
	assert.ErrorIs(t, err, features.ErrMissingValue)

	_, err = NewPredictor(nil, p.Pipeline)
	assert.Error(t, err)

	unfitted := training.NewPipeline(p.Pipeline.Features, nil, 1.0, 100)
	_, err = NewPredictor(p.Schema, unfitted)
	assert.ErrorIs(t, err, training.ErrNotFitted)

	short := training.NewPipeline(p.Pipeline.Features[:3], nil, 1.0, 100)
	_, err = NewPredictor(p.Schema, short)
	assert.ErrorIs(t, err, features.ErrSchemaMismatch)
}
