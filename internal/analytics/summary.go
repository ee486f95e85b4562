// Package analytics computes descriptive statistics over parsed products.
// Everything here is a pure function of its input slice.
package analytics

import (
	"strconv"

	"github.com/montanaflynn/stats"
)

// Rounding applied to mean and median values.
const (
	PricePlaces   = 2
	RatingPlaces  = 2
	ReviewsPlaces = 1
)

// Summary aggregates one numeric field over the records where it is present.
// All pointers are nil when Count is zero.
type Summary struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// Present reports whether any value contributed to the summary.
func (s Summary) Present() bool { return s.Count > 0 }

// summarize computes a Summary, rounding mean and median to places.
func summarize(values []float64, places int) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	data := stats.Float64Data(values)

	mean, err := data.Mean()
	if err != nil {
		return Summary{}
	}
	median, err := data.Median()
	if err != nil {
		return Summary{}
	}
	lo, err := data.Min()
	if err != nil {
		return Summary{}
	}
	hi, err := data.Max()
	if err != nil {
		return Summary{}
	}

	return Summary{
		Count:  len(values),
		Mean:   ptr(round(mean, places)),
		Median: ptr(round(median, places)),
		Min:    ptr(lo),
		Max:    ptr(hi),
	}
}

// round uses the exact decimal value of v, so ties go to the even digit:
// 1.25 -> 1.2, 4.125 -> 4.12.
func round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func ptr[T any](v T) *T { return &v }
