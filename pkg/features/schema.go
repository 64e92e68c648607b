// Package features turns trips into the numeric feature matrix shared by
// training and inference: rare-category consolidation, one-hot encoding
// against a declared schema, and standard scaling.
package features

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/wwdelhi/congestion/pkg/models"
)

var (
	// ErrUnseenCategory is returned when inference meets a categorical value
	// the schema was not fitted on.
	ErrUnseenCategory = errors.New("unseen categorical value")
	// ErrMissingValue is returned when a required input is missing.
	ErrMissingValue = errors.New("missing value")
	// ErrSchemaMismatch is returned when a column list differs from the schema.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)

// ColumnKind tells numeric inputs from one-hot indicators
type ColumnKind string

const (
	KindNumeric   ColumnKind = "numeric"
	KindIndicator ColumnKind = "indicator"
)

// Column is one feature of the encoded matrix
type Column struct {
	Name   string     `json:"name"`
	Kind   ColumnKind `json:"kind"`
	Source string     `json:"source"`          // Trip column it is derived from
	Level  string     `json:"level,omitempty"` // Indicator level
}

// Categorical describes the levels of one encoded categorical column. The
// first level is the reference category and gets no indicator.
type Categorical struct {
	Name   string   `json:"name"`
	Levels []string `json:"levels"`
}

// Reference returns the dropped reference level
func (c Categorical) Reference() string {
	if len(c.Levels) == 0 {
		return ""
	}
	return c.Levels[0]
}

// Schema is the ordered, typed list of features a model is trained on. It
// is fitted once from training trips and is the only way trips become rows,
// so training and inference cannot drift apart.
type Schema struct {
	Numeric       []string      `json:"numeric"`
	Categorical   []Categorical `json:"categorical"`
	columns       []Column
	index         map[string]int
	consolidators map[string]*Consolidator
}

// FitSchema derives levels for every categorical feature from trips, which
// must already be consolidated. Consolidators are remembered so inference
// input is mapped the same way.
func FitSchema(trips []models.Trip, consolidators ...*Consolidator) (*Schema, error) {
	if len(trips) == 0 {
		return nil, fmt.Errorf("cannot fit schema on empty data")
	}

	s := &Schema{
		Numeric:       append([]string(nil), models.NumericFeatures...),
		consolidators: make(map[string]*Consolidator),
	}
	for _, c := range consolidators {
		s.consolidators[c.Column] = c
	}

	for _, col := range models.CategoricalFeatures {
		seen := make(map[string]bool)
		for i := range trips {
			v, err := trips[i].Categorical(col)
			if err != nil {
				return nil, err
			}
			if v != "" {
				seen[v] = true
			}
		}
		levels := make([]string, 0, len(seen))
		for v := range seen {
			levels = append(levels, v)
		}
		sort.Strings(levels)
		s.Categorical = append(s.Categorical, Categorical{Name: col, Levels: levels})
	}

	s.build()
	return s, nil
}

func (s *Schema) build() {
	s.columns = s.columns[:0]
	for _, name := range s.Numeric {
		s.columns = append(s.columns, Column{Name: name, Kind: KindNumeric, Source: name})
	}
	for _, cat := range s.Categorical {
		for _, level := range cat.Levels[min(1, len(cat.Levels)):] {
			s.columns = append(s.columns, Column{
				Name:   cat.Name + "_" + level,
				Kind:   KindIndicator,
				Source: cat.Name,
				Level:  level,
			})
		}
	}
	s.index = make(map[string]int, len(s.columns))
	for i, c := range s.columns {
		s.index[c.Name] = i
	}
}

// Columns returns the ordered feature names
func (s *Schema) Columns() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Describe returns the typed feature columns
func (s *Schema) Describe() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Width is the number of encoded features
func (s *Schema) Width() int {
	return len(s.columns)
}

// NumericIndices returns the positions of the numeric columns
func (s *Schema) NumericIndices() []int {
	var idx []int
	for i, c := range s.columns {
		if c.Kind == KindNumeric {
			idx = append(idx, i)
		}
	}
	return idx
}

// Check verifies that columns match the schema exactly in names, order and
// count.
func (s *Schema) Check(columns []string) error {
	want := s.Columns()
	if len(columns) != len(want) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrSchemaMismatch, len(want), len(columns))
	}
	for i := range want {
		if columns[i] != want[i] {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaMismatch, i, columns[i], want[i])
		}
	}
	return nil
}

// EncodeAll builds the training matrix. Missing categoricals encode as all
// zero indicators; missing numerics are an error.
func (s *Schema) EncodeAll(trips []models.Trip) ([][]float64, error) {
	X := make([][]float64, len(trips))
	for i := range trips {
		row := make([]float64, len(s.columns))
		for j, name := range s.Numeric {
			v, err := trips[i].Numeric(name)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(v) {
				return nil, fmt.Errorf("trip %d (%s): %w in column '%s'", i, trips[i].ID, ErrMissingValue, name)
			}
			row[j] = v
		}
		for _, cat := range s.Categorical {
			v, err := trips[i].Categorical(cat.Name)
			if err != nil {
				return nil, err
			}
			if j, ok := s.index[cat.Name+"_"+v]; ok && v != "" {
				row[j] = 1
			}
		}
		X[i] = row
	}
	return X, nil
}

// Row is a single encoded sample
type Row struct {
	Columns []string
	Values  []float64
}

// Encode builds one inference row. Values folded into Other during training
// are mapped the same way; anything else the schema has not seen is
// rejected rather than silently treated as the reference level.
func (s *Schema) Encode(trip models.Trip) (*Row, error) {
	values := make([]float64, len(s.columns))

	for j, name := range s.Numeric {
		v, err := trip.Numeric(name)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column '%s'", ErrMissingValue, name)
		}
		values[j] = v
	}

	for _, cat := range s.Categorical {
		v, err := trip.Categorical(cat.Name)
		if err != nil {
			return nil, err
		}
		if v == "" {
			return nil, fmt.Errorf("%w: column '%s'", ErrMissingValue, cat.Name)
		}
		if c, ok := s.consolidators[cat.Name]; ok {
			v = c.Map(v)
		}
		if !containsString(cat.Levels, v) {
			return nil, fmt.Errorf("%w: column '%s' value %q (known: %v)", ErrUnseenCategory, cat.Name, v, cat.Levels)
		}
		if j, ok := s.index[cat.Name+"_"+v]; ok {
			values[j] = 1
		}
	}

	return &Row{Columns: s.Columns(), Values: values}, nil
}

// LabelsOf maps target labels onto ordinal codes
func LabelsOf(trips []models.Trip) ([]int, error) {
	y := make([]int, len(trips))
	for i := range trips {
		level, err := models.ParseLevel(trips[i].Level)
		if err != nil {
			return nil, fmt.Errorf("trip %d (%s): %w", i, trips[i].ID, err)
		}
		y[i] = int(level)
	}
	return y, nil
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
