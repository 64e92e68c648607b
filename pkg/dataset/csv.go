package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/wwdelhi/congestion/pkg/models"
)

// Dataset is a loaded trips CSV. Header and Rows keep the raw cells (missing
// cells are empty strings) for diagnostics; Trips holds the parsed records.
type Dataset struct {
	Header []string
	Rows   [][]string
	Trips  []models.Trip
}

// Load reads and parses a trips CSV file
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	ds, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Read parses a trips CSV from r. The header must name every column in
// models.TripColumns; extra columns are kept in the raw table and ignored.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV has no header")
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = strings.TrimSpace(col)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}
	for _, col := range models.TripColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("required column '%s' not found in header", col)
		}
	}

	ds := &Dataset{
		Header: header,
		Rows:   make([][]string, 0, len(records)-1),
		Trips:  make([]models.Trip, 0, len(records)-1),
	}

	for i, record := range records[1:] {
		row := make([]string, len(record))
		for j, cell := range record {
			row[j] = strings.TrimSpace(cell)
		}
		trip, err := parseTrip(row, index)
		if err != nil {
			// row numbers are 1-based and count the header line
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		ds.Rows = append(ds.Rows, row)
		ds.Trips = append(ds.Trips, trip)
	}

	return ds, nil
}

func parseTrip(row []string, index map[string]int) (models.Trip, error) {
	cell := func(col string) string {
		return row[index[col]]
	}

	distance, err := parseNumber(cell(models.ColumnDistance))
	if err != nil {
		return models.Trip{}, fmt.Errorf("column '%s': %w", models.ColumnDistance, err)
	}
	speed, err := parseNumber(cell(models.ColumnSpeed))
	if err != nil {
		return models.Trip{}, fmt.Errorf("column '%s': %w", models.ColumnSpeed, err)
	}

	return models.Trip{
		ID:               cell(models.ColumnTripID),
		StartArea:        cell(models.ColumnStartArea),
		EndArea:          cell(models.ColumnEndArea),
		DistanceKm:       distance,
		AverageSpeedKmph: speed,
		Weather:          cell(models.ColumnWeather),
		TimeOfDay:        cell(models.ColumnTimeOfDay),
		DayOfWeek:        cell(models.ColumnDayOfWeek),
		RoadType:         cell(models.ColumnRoadType),
		Level:            cell(models.ColumnLevel),
	}, nil
}

// parseNumber returns NaN for an empty cell
func parseNumber(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("non-numeric value '%s'", s)
	}
	return v, nil
}

// Shape returns the number of rows and columns
func (d *Dataset) Shape() (int, int) {
	return len(d.Rows), len(d.Header)
}

// MissingCounts returns the number of empty cells per header column, in
// header order
func (d *Dataset) MissingCounts() []int {
	counts := make([]int, len(d.Header))
	for _, row := range d.Rows {
		for j := range d.Header {
			if j >= len(row) || row[j] == "" {
				counts[j]++
			}
		}
	}
	return counts
}

// InvalidSpeedCount returns the number of trips whose average speed is zero
// or negative. Missing speeds are not counted.
func (d *Dataset) InvalidSpeedCount() int {
	n := 0
	for _, trip := range d.Trips {
		if trip.AverageSpeedKmph <= 0 {
			n++
		}
	}
	return n
}
