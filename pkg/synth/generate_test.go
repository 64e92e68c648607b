package synth

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwdelhi/congestion/pkg/dataset"
	"github.com/wwdelhi/congestion/pkg/models"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(200, 42)
	b := Generate(200, 42)
	c := Generate(200, 43)

	require.Len(t, a, 200)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "T00001", a[0].ID)
}

func TestGenerate_Values(t *testing.T) {
	trips := Generate(500, 1)

	levels := map[string]int{}
	weatherCounts := map[string]int{}
	for _, trip := range trips {
		_, err := models.ParseLevel(trip.Level)
		require.NoError(t, err, trip.ID)
		levels[trip.Level]++
		weatherCounts[trip.Weather]++

		assert.NotEqual(t, trip.StartArea, trip.EndArea)
		assert.GreaterOrEqual(t, trip.DistanceKm, 1.0)
		assert.LessOrEqual(t, trip.DistanceKm, 40.0)
		assert.GreaterOrEqual(t, trip.AverageSpeedKmph, 2.0)
		assert.False(t, math.IsNaN(trip.AverageSpeedKmph))
	}

	assert.Len(t, levels, models.NumLevels(), "every level is generated")
	assert.Equal(t, 2, weatherCounts["Dust Storm"])
	assert.Equal(t, 1, weatherCounts["Hail"])
	assert.Greater(t, weatherCounts["Rain"], 5)
}

func TestWriteCSV(t *testing.T) {
	trips := Generate(40, 3)
	trips[5].DistanceKm = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, trips))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, strings.Join(models.TripColumns, ","), header)

	ds, err := dataset.Read(&buf)
	require.NoError(t, err)
	require.Len(t, ds.Trips, 40)
	assert.Equal(t, trips[0], ds.Trips[0])
	assert.True(t, math.IsNaN(ds.Trips[5].DistanceKm))
	assert.Equal(t, trips[39].Level, ds.Trips[39].Level)
}
