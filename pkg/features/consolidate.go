package features

import (
	"fmt"
	"sort"

	"github.com/wwdelhi/congestion/pkg/models"
)

// Consolidator collapses categorical values seen fewer than Threshold times
// into a single Other bucket.
type Consolidator struct {
	Column    string
	Threshold int
	Other     string

	counts    map[string]int
	collapsed map[string]bool
}

// NewConsolidator creates a consolidator for one categorical column
func NewConsolidator(column string, threshold int, other string) *Consolidator {
	return &Consolidator{
		Column:    column,
		Threshold: threshold,
		Other:     other,
	}
}

// Fit counts the non-missing values of the column
func (c *Consolidator) Fit(trips []models.Trip) error {
	c.counts = make(map[string]int)
	c.collapsed = make(map[string]bool)

	for i := range trips {
		v, err := trips[i].Categorical(c.Column)
		if err != nil {
			return err
		}
		if v == "" {
			continue
		}
		c.counts[v]++
	}

	for v, n := range c.counts {
		if n < c.Threshold && v != c.Other {
			c.collapsed[v] = true
		}
	}
	return nil
}

// Apply returns a copy of trips with collapsed values relabelled
func (c *Consolidator) Apply(trips []models.Trip) ([]models.Trip, error) {
	if c.counts == nil {
		return nil, fmt.Errorf("consolidator for %s is not fitted", c.Column)
	}
	out := make([]models.Trip, len(trips))
	copy(out, trips)
	for i := range out {
		v, err := out[i].Categorical(c.Column)
		if err != nil {
			return nil, err
		}
		if c.collapsed[v] {
			if err := out[i].SetCategorical(c.Column, c.Other); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Map translates a single value the way Apply does
func (c *Consolidator) Map(value string) string {
	if c.collapsed[value] {
		return c.Other
	}
	return value
}

// Collapsed lists the values folded into Other, sorted
func (c *Consolidator) Collapsed() []string {
	out := make([]string, 0, len(c.collapsed))
	for v := range c.collapsed {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Counts returns the fitted frequency of a value
func (c *Consolidator) Counts(value string) int {
	return c.counts[value]
}
