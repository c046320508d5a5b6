package indicators

import (
	"math"
	"sort"
	"time"
)

// Interval is one corrective maintenance event: the equipment stopped at
// FailureStart and was running again at RepairEnd.
type Interval struct {
	FailureStart time.Time
	RepairEnd    time.Time
}

// Result holds the reliability indicators for one piece of equipment.
// A nil pointer means the indicator is undefined for the supplied records.
type Result struct {
	MTBFHours    *float64 `json:"mtbf_hours"`
	MTTRHours    *float64 `json:"mttr_hours"`
	Failures     int      `json:"failures"`
	NegativeGaps int      `json:"negative_gaps,omitempty"`
}

// Compute derives MTBF and MTTR from a set of corrective intervals.
//
// Records are ordered by failure start (stable, so equal starts keep their
// input order). MTTR is the mean repair duration. MTBF is the mean gap
// between one repair ending and the next failure starting, and needs at
// least two records. Overlapping records produce negative gaps; those are
// averaged as-is and counted in NegativeGaps. Both values are rounded to
// two decimals.
func Compute(records []Interval) Result {
	if len(records) == 0 {
		return Result{}
	}

	ordered := make([]Interval, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].FailureStart.Before(ordered[j].FailureStart)
	})

	var repairSum float64
	for _, rec := range ordered {
		repairSum += rec.RepairEnd.Sub(rec.FailureStart).Hours()
	}
	mttr := round2(repairSum / float64(len(ordered)))
	res := Result{MTTRHours: &mttr, Failures: len(ordered)}

	if len(ordered) < 2 {
		return res
	}

	var uptimeSum float64
	for i := 1; i < len(ordered); i++ {
		gap := ordered[i].FailureStart.Sub(ordered[i-1].RepairEnd).Hours()
		if gap < 0 {
			res.NegativeGaps++
		}
		uptimeSum += gap
	}
	mtbf := round2(uptimeSum / float64(len(ordered)-1))
	res.MTBFHours = &mtbf

	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
