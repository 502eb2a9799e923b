// Package stats holds aggregate views over incidents.
package stats

import (
	"fmt"
	"math"

	"github.com/bakwc/ppg-incidents/internal/domain"
)

// CountryCount is the number of incidents in one country.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// YearCount is the number of incidents in one year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// DateRange spans the earliest and latest incident dates. Empty when nothing is dated.
type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// PackCount is the number of incidents matching a named filter pack.
type PackCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PercentileResult is a percentile over the non-null values of a column.
// Value is nil when no row has a value.
type PercentileResult struct {
	Percentile float64  `json:"percentile"`
	Value      *float64 `json:"value"`
	Count      int      `json:"count"`
}

// ValidatePercentile rejects p outside [0, 100].
func ValidatePercentile(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return fmt.Errorf("%w: percentile must be within [0, 100], got %v", domain.ErrInvalidRequest, p)
	}
	return nil
}

// Percentile interpolates linearly between the closest ranks of sorted.
// sorted must be ascending; ok is false when it is empty.
func Percentile(sorted []float64, p float64) (value float64, ok bool) {
	switch len(sorted) {
	case 0:
		return 0, false
	case 1:
		return sorted[0], true
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], true
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, true
}
