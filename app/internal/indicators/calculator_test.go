package indicators

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", value)
	require.NoError(t, err)
	return ts
}

func interval(t *testing.T, start, end string) Interval {
	t.Helper()
	return Interval{FailureStart: at(t, start), RepairEnd: at(t, end)}
}

func threeRecords(t *testing.T) []Interval {
	return []Interval{
		interval(t, "2025-01-01T08:00", "2025-01-01T12:00"),
		interval(t, "2025-01-03T08:00", "2025-01-03T10:00"),
		interval(t, "2025-01-05T20:00", "2025-01-06T00:00"),
	}
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(nil)
	assert.Nil(t, res.MTBFHours)
	assert.Nil(t, res.MTTRHours)
	assert.Zero(t, res.Failures)

	res = Compute([]Interval{})
	assert.Nil(t, res.MTBFHours)
	assert.Nil(t, res.MTTRHours)
}

func TestCompute_SingleRecord(t *testing.T) {
	res := Compute([]Interval{interval(t, "2025-01-01T08:00", "2025-01-01T10:00")})

	require.NotNil(t, res.MTTRHours)
	assert.Equal(t, 2.0, *res.MTTRHours)
	assert.Nil(t, res.MTBFHours)
	assert.Equal(t, 1, res.Failures)
}

func TestCompute_MultipleRecords(t *testing.T) {
	res := Compute(threeRecords(t))

	require.NotNil(t, res.MTTRHours)
	require.NotNil(t, res.MTBFHours)
	assert.Equal(t, 3.33, *res.MTTRHours)
	assert.Equal(t, 51.0, *res.MTBFHours)
	assert.Equal(t, 3, res.Failures)
	assert.Zero(t, res.NegativeGaps)
}

func TestCompute_OrderInvariant(t *testing.T) {
	recs := threeRecords(t)
	want := Compute(recs)

	perms := [][]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range perms {
		shuffled := []Interval{recs[p[0]], recs[p[1]], recs[p[2]]}
		assert.Equal(t, want, Compute(shuffled), "permutation %v", p)
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	recs := threeRecords(t)
	reversed := []Interval{recs[2], recs[1], recs[0]}
	snapshot := append([]Interval(nil), reversed...)

	Compute(reversed)

	assert.Equal(t, snapshot, reversed)
}

func TestCompute_Rounding(t *testing.T) {
	// repairs of 1h, 1h and 2h: 4/3 = 1.333...
	recs := []Interval{
		interval(t, "2025-02-01T00:00", "2025-02-01T01:00"),
		interval(t, "2025-02-02T00:00", "2025-02-02T01:00"),
		interval(t, "2025-02-03T00:00", "2025-02-03T02:00"),
	}
	res := Compute(recs)
	require.NotNil(t, res.MTTRHours)
	assert.Equal(t, 1.33, *res.MTTRHours)

	// 20 minutes = 0.3333h, 40 minutes = 0.6667h
	res = Compute([]Interval{interval(t, "2025-02-01T00:00", "2025-02-01T00:40")})
	require.NotNil(t, res.MTTRHours)
	assert.Equal(t, 0.67, *res.MTTRHours)
}

func TestCompute_SubSecondPrecision(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	res := Compute([]Interval{{FailureStart: start, RepairEnd: start.Add(90*time.Minute + 500*time.Millisecond)}})
	require.NotNil(t, res.MTTRHours)
	assert.Equal(t, 1.5, *res.MTTRHours)
}

func TestCompute_NonNegativeForValidInput(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var recs []Interval
	cursor := base
	for i := 0; i < 25; i++ {
		start := cursor.Add(time.Duration(i*7+1) * time.Hour)
		end := start.Add(time.Duration(i%5) * 37 * time.Minute)
		recs = append(recs, Interval{FailureStart: start, RepairEnd: end})
		cursor = end
	}

	res := Compute(recs)
	require.NotNil(t, res.MTTRHours)
	require.NotNil(t, res.MTBFHours)
	assert.GreaterOrEqual(t, *res.MTTRHours, 0.0)
	assert.GreaterOrEqual(t, *res.MTBFHours, 0.0)
	assert.Zero(t, res.NegativeGaps)
}

func TestCompute_OverlappingRecordsKeepNegativeGap(t *testing.T) {
	recs := []Interval{
		interval(t, "2025-01-01T08:00", "2025-01-01T20:00"),
		interval(t, "2025-01-01T10:00", "2025-01-01T12:00"),
	}
	res := Compute(recs)

	require.NotNil(t, res.MTBFHours)
	assert.Equal(t, -10.0, *res.MTBFHours)
	assert.Equal(t, 1, res.NegativeGaps)
}

func TestCompute_EqualStartsStable(t *testing.T) {
	// Same failure start, different repair ends: the gap to the third record
	// is measured from whichever of the tied records comes last in input.
	a := interval(t, "2025-01-01T08:00", "2025-01-01T09:00")
	b := interval(t, "2025-01-01T08:00", "2025-01-01T11:00")
	c := interval(t, "2025-01-02T08:00", "2025-01-02T09:00")

	first := Compute([]Interval{a, b, c})
	second := Compute([]Interval{b, a, c})

	require.NotNil(t, first.MTBFHours)
	require.NotNil(t, second.MTBFHours)
	// a,b,c: gaps -1h and 21h -> 10h. b,a,c: gaps -3h and 23h -> 10h.
	assert.Equal(t, 10.0, *first.MTBFHours)
	assert.Equal(t, 10.0, *second.MTBFHours)
	assert.Equal(t, 1, first.NegativeGaps)
	assert.Equal(t, 1, second.NegativeGaps)
}

func TestCompute_Concurrent(t *testing.T) {
	recs := threeRecords(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := Compute(recs)
			if res.MTTRHours == nil || *res.MTTRHours != 3.33 {
				t.Errorf("unexpected MTTR %v", res.MTTRHours)
			}
		}()
	}
	wg.Wait()
}
