package xbrl

import (
	"fmt"
	"sort"
	"time"

	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
)

// Period-span bands in days. A 70-120 day span reads as a fiscal quarter,
// a 330-400 day span as a fiscal year; everything else is ignored for TTM.
const (
	quarterMinDays = 70
	quarterMaxDays = 120
	annualMinDays  = 330
	annualMaxDays  = 400
)

// ttmQuarters is the number of non-overlapping quarters summed into a TTM.
const ttmQuarters = 4

// durationDays returns the span of an observation in days. Instant-style
// facts (no start date) have no span.
func durationDays(o Observation) (int, bool) {
	if o.Start == "" || o.End == "" {
		return 0, false
	}
	start, err := time.Parse("2006-01-02", o.Start)
	if err != nil {
		return 0, false
	}
	end, err := time.Parse("2006-01-02", o.End)
	if err != nil {
		return 0, false
	}
	return int(end.Sub(start).Hours() / 24), true
}

// sortByEnd returns a copy sorted ascending by period end. Dates are
// YYYY-MM-DD so lexicographic order is temporal order.
func sortByEnd(obs []Observation) []Observation {
	s := make([]Observation, len(obs))
	copy(s, obs)
	sort.SliceStable(s, func(i, j int) bool { return s[i].End < s[j].End })
	return s
}

// LatestInstant returns the observation with the greatest period end,
// or nil for an empty series.
func LatestInstant(obs []Observation) *Observation {
	if len(obs) == 0 {
		return nil
	}
	s := sortByEnd(obs)
	return &s[len(s)-1]
}

// PriorInstant returns the second-most-recent observation by period end,
// or nil when fewer than two exist.
func PriorInstant(obs []Observation) *Observation {
	if len(obs) < 2 {
		return nil
	}
	s := sortByEnd(obs)
	return &s[len(s)-2]
}

// sumLastQuarters sums the most recent n distinct quarterly observations.
// Walking the sorted series from newest to oldest keeps the newest
// disclosure of a duplicated quarter end; returns nil when fewer than n
// distinct quarters qualify.
func sumLastQuarters(obs []Observation, n int) *models.TTMValue {
	var quarters []Observation
	for _, o := range obs {
		if d, ok := durationDays(o); ok && d >= quarterMinDays && d <= quarterMaxDays {
			quarters = append(quarters, o)
		}
	}
	if len(quarters) < n {
		return nil
	}

	sorted := sortByEnd(quarters)
	seen := make(map[string]bool, n)
	var picked []Observation
	for i := len(sorted) - 1; i >= 0; i-- {
		end := sorted[i].End
		if end == "" || seen[end] {
			continue
		}
		seen[end] = true
		picked = append(picked, sorted[i])
		if len(picked) >= n {
			break
		}
	}
	if len(picked) < n {
		return nil
	}

	// picked is newest-first; restore chronological order before summing.
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}

	var sum float64
	for _, o := range picked {
		sum += o.Val
	}
	return &models.TTMValue{
		Value:  models.Float(sum),
		End:    picked[len(picked)-1].End,
		Source: models.SourceTTMQuarters,
	}
}

// latestFiscalYear returns the most recent annual-span observation,
// or nil when none qualifies.
func latestFiscalYear(obs []Observation) *models.TTMValue {
	var years []Observation
	for _, o := range obs {
		if d, ok := durationDays(o); ok && d >= annualMinDays && d <= annualMaxDays {
			years = append(years, o)
		}
	}
	if len(years) == 0 {
		return nil
	}
	sorted := sortByEnd(years)
	last := sorted[len(sorted)-1]

	source := "FY"
	if last.FY > 0 {
		source = fmt.Sprintf("FY_%d", last.FY)
	}
	return &models.TTMValue{
		Value:  models.Float(last.Val),
		End:    last.End,
		Source: source,
	}
}

// BestTTM derives a trailing-twelve-month value: a sum of the four most
// recent distinct quarters when available, otherwise the latest fiscal
// year, otherwise an explicit MISSING marker.
func BestTTM(obs []Observation) models.TTMValue {
	if q := sumLastQuarters(obs, ttmQuarters); q != nil {
		return *q
	}
	if fy := latestFiscalYear(obs); fy != nil {
		return *fy
	}
	return models.TTMValue{Source: models.SourceMissing}
}
