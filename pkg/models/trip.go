package models

import (
	"errors"
	"fmt"
	"math"
)

// CSV column names of the trips file
const (
	ColumnTripID    = "Trip_ID"
	ColumnStartArea = "start_area"
	ColumnEndArea   = "end_area"
	ColumnDistance  = "distance_km"
	ColumnTimeOfDay = "time_of_day"
	ColumnDayOfWeek = "day_of_week"
	ColumnWeather   = "weather_condition"
	ColumnLevel     = "traffic_density_level"
	ColumnRoadType  = "road_type"
	ColumnSpeed     = "average_speed_kmph"
)

// TripColumns lists every column the trips CSV must carry, in the order the
// generator writes them.
var TripColumns = []string{
	ColumnTripID,
	ColumnStartArea,
	ColumnEndArea,
	ColumnDistance,
	ColumnTimeOfDay,
	ColumnDayOfWeek,
	ColumnWeather,
	ColumnLevel,
	ColumnRoadType,
	ColumnSpeed,
}

// NumericFeatures are the continuous model inputs, in feature order
var NumericFeatures = []string{ColumnDistance, ColumnSpeed}

// CategoricalFeatures are one-hot encoded, in feature order
var CategoricalFeatures = []string{ColumnWeather, ColumnTimeOfDay, ColumnDayOfWeek, ColumnRoadType}

// Trip is a single vehicle trip. Missing numerics are NaN and missing
// categoricals are empty strings.
type Trip struct {
	ID               string  `json:"trip_id"`
	StartArea        string  `json:"start_area"`
	EndArea          string  `json:"end_area"`
	DistanceKm       float64 `json:"distance_km"`
	AverageSpeedKmph float64 `json:"average_speed_kmph"`
	Weather          string  `json:"weather_condition"`
	TimeOfDay        string  `json:"time_of_day"`
	DayOfWeek        string  `json:"day_of_week"`
	RoadType         string  `json:"road_type"`
	Level            string  `json:"traffic_density_level"`
}

// Numeric returns the value of a numeric feature column
func (t *Trip) Numeric(column string) (float64, error) {
	switch column {
	case ColumnDistance:
		return t.DistanceKm, nil
	case ColumnSpeed:
		return t.AverageSpeedKmph, nil
	}
	return math.NaN(), fmt.Errorf("unknown numeric column %q", column)
}

// Categorical returns the value of a categorical feature column
func (t *Trip) Categorical(column string) (string, error) {
	switch column {
	case ColumnWeather:
		return t.Weather, nil
	case ColumnTimeOfDay:
		return t.TimeOfDay, nil
	case ColumnDayOfWeek:
		return t.DayOfWeek, nil
	case ColumnRoadType:
		return t.RoadType, nil
	}
	return "", fmt.Errorf("unknown categorical column %q", column)
}

// SetCategorical overwrites a categorical feature column
func (t *Trip) SetCategorical(column, value string) error {
	switch column {
	case ColumnWeather:
		t.Weather = value
	case ColumnTimeOfDay:
		t.TimeOfDay = value
	case ColumnDayOfWeek:
		t.DayOfWeek = value
	case ColumnRoadType:
		t.RoadType = value
	default:
		return fmt.Errorf("unknown categorical column %q", column)
	}
	return nil
}

// CongestionLevel is the ordinal target, Low=0 through VeryHigh=3
type CongestionLevel int

const (
	LevelLow CongestionLevel = iota
	LevelMedium
	LevelHigh
	LevelVeryHigh
)

// ErrUnknownLevel is returned for a target label outside the four levels
var ErrUnknownLevel = errors.New("unknown congestion level")

var levelNames = []string{"Low", "Medium", "High", "Very High"}

// LevelNames returns the level labels in ordinal order
func LevelNames() []string {
	out := make([]string, len(levelNames))
	copy(out, levelNames)
	return out
}

// NumLevels is the number of ordinal classes
func NumLevels() int {
	return len(levelNames)
}

// String returns the human-readable label
func (l CongestionLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("CongestionLevel(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel maps a target label onto its ordinal code
func ParseLevel(s string) (CongestionLevel, error) {
	for i, name := range levelNames {
		if s == name {
			return CongestionLevel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}
