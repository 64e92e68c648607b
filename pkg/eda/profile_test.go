package eda

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wwdelhi/congestion/pkg/dataset"
	"github.com/wwdelhi/congestion/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sampleCSV = `Trip_ID,start_area,end_area,distance_km,time_of_day,day_of_week,weather_condition,traffic_density_level,road_type,average_speed_kmph
T001,Saket,Dwarka,12.4,Morning Peak,Weekday,Clear,High,Main Road,18.5
T002,Rohini,Karol Bagh,,Evening Peak,Weekday,Rain,Very High,Inner Road,9.2
T003,Noida,Connaught Place,25.0,Afternoon,Weekend,,Medium,Highway,0
T004,Lajpat Nagar,Janakpuri,7.8,Night,Weekend,Clear,Low,Main Road,-3.0
T005,Pitampura,Saket,3.3,Night,Weekday,Clear,Low,Inner Road,
`

func newProfile(t *testing.T) *Profile {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	p, err := NewProfile(context.Background(), ds)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, p.Close()) })
	return p
}

func statsByName(p *Profile) map[string]ColumnStats {
	out := map[string]ColumnStats{}
	for _, c := range p.ColumnStats {
		out[c.Name] = c
	}
	return out
}

func TestNewProfile(t *testing.T) {
	p := newProfile(t)

	assert.Equal(t, 5, p.Rows)
	assert.Equal(t, 10, p.Columns)
	require.Len(t, p.ColumnStats, 10)

	stats := statsByName(p)
	assert.Equal(t, ColumnStats{Name: models.ColumnDistance, NonNull: 4, Missing: 1, Kind: KindNumeric}, stats[models.ColumnDistance])
	assert.Equal(t, ColumnStats{Name: models.ColumnWeather, NonNull: 4, Missing: 1, Kind: KindText}, stats[models.ColumnWeather])
	assert.Equal(t, 1, stats[models.ColumnSpeed].Missing)
	assert.Equal(t, KindNumeric, stats[models.ColumnSpeed].Kind)
	assert.Equal(t, KindText, stats[models.ColumnTripID].Kind)

	assert.Equal(t, 2, p.InvalidSpeeds)
	assert.Equal(t, 3.3, p.MinDistance)
	assert.Equal(t, 25.0, p.MaxDistance)
}

func TestProfile_ValueCounts(t *testing.T) {
	p := newProfile(t)
	ctx := context.Background()

	counts, err := p.ValueCounts(ctx, models.ColumnWeather)
	require.NoError(t, err)
	assert.Equal(t, []ValueCount{{Value: "Clear", Count: 3}, {Value: "Rain", Count: 1}}, counts)

	_, err = p.ValueCounts(ctx, "no_such_column")
	assert.Error(t, err)
}

func TestProfile_Head(t *testing.T) {
	p := newProfile(t)

	head, err := p.Head(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, head, 2)
	assert.Equal(t, "T001", head[0][0])
	assert.Equal(t, "12.4", head[0][3])
	assert.Equal(t, "NaN", head[1][3])
}

func TestProfile_EmptyDistance(t *testing.T) {
	ds, err := dataset.Read(strings.NewReader(strings.SplitN(sampleCSV, "\n", 2)[0] + "\n"))
	require.NoError(t, err)

	p, err := NewProfile(context.Background(), ds)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 0, p.Rows)
	assert.True(t, math.IsNaN(p.MinDistance))
	assert.True(t, math.IsNaN(p.MaxDistance))
}

func TestNewProfile_NonFiniteSpellingsStayText(t *testing.T) {
	csv := strings.NewReplacer(",Main Road,", ",NaN,", ",Inner Road,", ",Inf,", ",Highway,", ",infinity,").Replace(sampleCSV)
	ds, err := dataset.Read(strings.NewReader(csv))
	require.NoError(t, err)

	p, err := NewProfile(context.Background(), ds)
	require.NoError(t, err)
	defer p.Close()

	stats := statsByName(p)
	assert.Equal(t, ColumnStats{Name: models.ColumnRoadType, NonNull: 5, Missing: 0, Kind: KindText}, stats[models.ColumnRoadType])

	counts, err := p.ValueCounts(context.Background(), models.ColumnRoadType)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ValueCount{{Value: "NaN", Count: 2}, {Value: "Inf", Count: 2}, {Value: "infinity", Count: 1}}, counts)
}

func TestReport(t *testing.T) {
	p := newProfile(t)

	var buf bytes.Buffer
	require.NoError(t, Report(context.Background(), &buf, p, models.ColumnWeather))
	out := buf.String()

	assert.Contains(t, out, "First 5 rows:")
	assert.Contains(t, out, "Shape: (5, 10)")
	assert.Contains(t, out, "Distance km max: 25, min: 3.3")
	assert.Contains(t, out, "Rows with average speed <= 0: 2")
	assert.Contains(t, out, "Value counts of weather_condition:")
	assert.Contains(t, out, "4 non-null")
	assert.Contains(t, out, "Karol Bagh")

	assert.Error(t, Report(context.Background(), &buf, p, "missing_column"))
}
