package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Trip_ID,start_area,end_area,distance_km,time_of_day,day_of_week,weather_condition,traffic_density_level,road_type,average_speed_kmph
T001,Saket,Dwarka,12.4,Morning Peak,Weekday,Clear,High,Main Road,18.5
T002,Rohini,Karol Bagh,,Evening Peak,Weekday,Rain,Very High,Inner Road,9.2
T003,Noida,Connaught Place,25.0,Afternoon,Weekend,,Medium,Highway,0
T004,Lajpat Nagar,Janakpuri, 7.8 ,Night,Weekend,Fog,Low,Main Road,-3.0
T005,Pitampura,Saket,3.3,Night,Weekday,Clear,Low,Inner Road,
`

func TestRead(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	rows, cols := ds.Shape()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 10, cols)
	require.Len(t, ds.Trips, 5)

	first := ds.Trips[0]
	assert.Equal(t, "T001", first.ID)
	assert.Equal(t, "Saket", first.StartArea)
	assert.Equal(t, 12.4, first.DistanceKm)
	assert.Equal(t, 18.5, first.AverageSpeedKmph)
	assert.Equal(t, "Clear", first.Weather)
	assert.Equal(t, "Morning Peak", first.TimeOfDay)
	assert.Equal(t, "Weekday", first.DayOfWeek)
	assert.Equal(t, "Main Road", first.RoadType)
	assert.Equal(t, "High", first.Level)

	// whitespace around numbers is trimmed
	assert.Equal(t, 7.8, ds.Trips[3].DistanceKm)

	// empty cells are missing
	assert.True(t, math.IsNaN(ds.Trips[1].DistanceKm))
	assert.Equal(t, "", ds.Trips[2].Weather)
	assert.True(t, math.IsNaN(ds.Trips[4].AverageSpeedKmph))
}

func TestMissingCounts(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	missing := map[string]int{}
	for i, count := range ds.MissingCounts() {
		missing[ds.Header[i]] = count
	}
	assert.Equal(t, 1, missing["distance_km"])
	assert.Equal(t, 1, missing["weather_condition"])
	assert.Equal(t, 1, missing["average_speed_kmph"])
	assert.Equal(t, 0, missing["Trip_ID"])
}

func TestInvalidSpeedCount(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// zero and negative speeds count, the missing speed does not
	assert.Equal(t, 2, ds.InvalidSpeedCount())
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{
			name:    "empty input",
			input:   "",
			message: "no header",
		},
		{
			name:    "missing column",
			input:   "Trip_ID,distance_km\nT1,3\n",
			message: "required column",
		},
		{
			name: "non numeric distance",
			input: "Trip_ID,start_area,end_area,distance_km,time_of_day,day_of_week,weather_condition,traffic_density_level,road_type,average_speed_kmph\n" +
				"T1,a,b,far,Night,Weekday,Clear,Low,Main Road,30\n",
			message: "row 2: column 'distance_km'",
		},
		{
			name: "ragged row",
			input: "Trip_ID,start_area,end_area,distance_km,time_of_day,day_of_week,weather_condition,traffic_density_level,road_type,average_speed_kmph\n" +
				"T1,a,b\n",
			message: "failed to read CSV",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ds.Trips, 5)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
