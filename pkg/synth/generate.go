// Package synth generates reproducible synthetic trip data with the same
// columns as the Delhi traffic CSV.
package synth

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"github.com/wwdelhi/congestion/pkg/models"
)

var (
	areas = []string{
		"Connaught Place", "Karol Bagh", "Saket", "Dwarka", "Rohini",
		"Lajpat Nagar", "Janakpuri", "Noida Sector 18", "Pitampura", "Chandni Chowk",
		"Vasant Kunj", "Mayur Vihar",
	}
	timesOfDay = []string{"Morning Peak", "Afternoon", "Evening Peak", "Night"}
	roadTypes  = []string{"Main Road", "Inner Road", "Highway"}

	// common weather with cumulative draw weights
	weather = []struct {
		Name   string
		Weight float64
	}{
		{"Clear", 0.50},
		{"Rain", 0.22},
		{"Fog", 0.16},
		{"Cloudy", 0.12},
	}

	// rare weather placed at fixed positions so each stays under the
	// consolidation threshold
	rareWeather = map[int]string{
		7:  "Dust Storm",
		19: "Dust Storm",
		31: "Hail",
	}

	baseSpeed = map[string]float64{
		"Highway":    55,
		"Main Road":  35,
		"Inner Road": 25,
	}
	timeFactor = map[string]float64{
		"Morning Peak": 0.6,
		"Afternoon":    0.95,
		"Evening Peak": 0.55,
		"Night":        1.3,
	}
	weatherFactor = map[string]float64{
		"Clear":      1.0,
		"Cloudy":     0.95,
		"Rain":       0.75,
		"Fog":        0.7,
		"Dust Storm": 0.6,
		"Hail":       0.6,
	}
)

// Generate returns rows trips drawn from seed. Average speed follows road
// type, time of day, weather and day of week; the congestion level is a
// noisy banding of speed.
func Generate(rows int, seed int64) []models.Trip {
	r := rand.New(rand.NewSource(seed))
	trips := make([]models.Trip, rows)

	for i := range trips {
		start := areas[r.Intn(len(areas))]
		end := areas[r.Intn(len(areas))]
		for end == start {
			end = areas[r.Intn(len(areas))]
		}

		tod := timesOfDay[r.Intn(len(timesOfDay))]
		road := roadTypes[r.Intn(len(roadTypes))]
		day := "Weekday"
		if r.Float64() < 0.3 {
			day = "Weekend"
		}
		w := pickWeather(r)
		if rare, ok := rareWeather[i]; ok {
			w = rare
		}

		speed := baseSpeed[road] * timeFactor[tod] * weatherFactor[w]
		if day == "Weekend" {
			speed *= 1.1
		}
		speed = math.Max(2, speed+r.NormFloat64()*4)

		trips[i] = models.Trip{
			ID:               fmt.Sprintf("T%05d", i+1),
			StartArea:        start,
			EndArea:          end,
			DistanceKm:       round1(1 + r.Float64()*39),
			AverageSpeedKmph: round1(speed),
			Weather:          w,
			TimeOfDay:        tod,
			DayOfWeek:        day,
			RoadType:         road,
			Level:            levelFor(speed + r.NormFloat64()*3).String(),
		}
	}
	return trips
}

func pickWeather(r *rand.Rand) string {
	x := r.Float64()
	acc := 0.0
	for _, w := range weather {
		acc += w.Weight
		if x < acc {
			return w.Name
		}
	}
	return weather[len(weather)-1].Name
}

func levelFor(score float64) models.CongestionLevel {
	switch {
	case score > 40:
		return models.LevelLow
	case score > 28:
		return models.LevelMedium
	case score > 17:
		return models.LevelHigh
	default:
		return models.LevelVeryHigh
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// WriteCSV writes trips with a header in the canonical column order. Missing
// values are written as empty cells.
func WriteCSV(w io.Writer, trips []models.Trip) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(models.TripColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, t := range trips {
		record := []string{
			t.ID,
			t.StartArea,
			t.EndArea,
			formatNumber(t.DistanceKm),
			t.TimeOfDay,
			t.DayOfWeek,
			t.Weather,
			t.Level,
			t.RoadType,
			formatNumber(t.AverageSpeedKmph),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write trip %s: %w", t.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
