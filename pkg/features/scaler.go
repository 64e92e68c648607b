package features

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardises selected columns to zero mean and unit
// population variance. Other columns pass through unchanged.
type StandardScaler struct {
	Columns []int     `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// NewStandardScaler creates a scaler for the given column positions
func NewStandardScaler(columns []int) *StandardScaler {
	return &StandardScaler{Columns: append([]int(nil), columns...)}
}

// Fit computes per-column statistics from X
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("cannot fit scaler on empty data")
	}
	s.Mean = make([]float64, len(s.Columns))
	s.Scale = make([]float64, len(s.Columns))

	col := make([]float64, len(X))
	for k, j := range s.Columns {
		for i, row := range X {
			if j >= len(row) {
				return fmt.Errorf("row %d has %d columns, scaler needs column %d", i, len(row), j)
			}
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[k] = mean
		s.Scale[k] = std
	}
	return nil
}

// Fitted reports whether Fit has run
func (s *StandardScaler) Fitted() bool {
	return s.Mean != nil
}

// Transform returns a scaled copy of X
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformRow returns a scaled copy of one row
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, fmt.Errorf("scaler is not fitted")
	}
	out := make([]float64, len(row))
	copy(out, row)
	for k, j := range s.Columns {
		if j >= len(row) {
			return nil, fmt.Errorf("row has %d columns, scaler needs column %d", len(row), j)
		}
		out[j] = (row[j] - s.Mean[k]) / s.Scale[k]
	}
	return out, nil
}

// FitTransform fits on X and returns the scaled copy
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
