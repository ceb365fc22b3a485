package tracker_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/ogulcanaydogan/xcli/pkg/tracker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSumSince_Empty(t *testing.T) {
	agg := tracker.NewAggregator(fixedClock(noon))
	assert.True(t, agg.SumSince(nil, time.Hour).IsZero())
	assert.True(t, agg.SumSinceLocalMidnight(nil).IsZero())
}

func TestSumSince_InclusiveCutoff(t *testing.T) {
	agg := tracker.NewAggregator(fixedClock(noon))
	records := []model.UsageRecord{
		rec("posts.get", 0.005, noon.Add(-time.Hour)),
		rec("posts.get", 0.005, noon.Add(-time.Hour-time.Nanosecond)),
	}
	assert.Equal(t, "0.005", agg.SumSince(records, time.Hour).String())
}

func TestSumSince_NegativeWindowIsZero(t *testing.T) {
	agg := tracker.NewAggregator(fixedClock(noon))
	records := []model.UsageRecord{
		rec("posts.get", 0.005, noon),
		rec("posts.get", 0.005, noon.Add(-time.Minute)),
	}
	assert.Equal(t, "0.005", agg.SumSince(records, -time.Hour).String())
}

func TestSumSince_ExactDecimals(t *testing.T) {
	agg := tracker.NewAggregator(fixedClock(noon))
	var records []model.UsageRecord
	for range 10 {
		records = append(records, rec("posts.create", 0.1, noon))
	}
	assert.True(t, agg.SumSince(records, time.Hour).Equal(decimal.NewFromInt(1)))
}

func TestSumSince_MonotonicInWindow(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	agg := tracker.NewAggregator(fixedClock(noon))

	var records []model.UsageRecord
	for range 500 {
		age := time.Duration(rng.Int64N(int64(40 * 24 * time.Hour)))
		records = append(records, rec("posts.get", float64(rng.IntN(100))/1000, noon.Add(-age)))
	}

	windows := model.StandardWindows()
	prev := decimal.Zero
	for _, w := range windows {
		got := agg.SumSince(records, w.Duration)
		assert.True(t, got.GreaterThanOrEqual(prev), "window %s", w.Label)
		prev = got
	}
}

func TestSumSince_Idempotent(t *testing.T) {
	agg := tracker.NewAggregator(fixedClock(noon))
	records := []model.UsageRecord{
		rec("posts.get", 0.005, noon.Add(-time.Minute)),
		rec("likes.create", 0.015, noon.Add(-2*time.Hour)),
	}
	first := agg.Summary(records)
	second := agg.Summary(records)
	assert.Equal(t, first, second)
}

func TestSumSinceLocalMidnight_Boundary(t *testing.T) {
	midnight := model.StartOfDay(noon)
	agg := tracker.NewAggregator(fixedClock(noon))
	records := []model.UsageRecord{
		rec("posts.create", 0.01, midnight),
		rec("posts.create", 0.01, midnight.Add(-time.Second)),
		rec("posts.create", 0.01, noon),
	}
	assert.Equal(t, "0.02", agg.SumSinceLocalMidnight(records).String())
}

func TestSummary(t *testing.T) {
	agg := tracker.NewAggregator(fixedClock(noon))
	records := []model.UsageRecord{
		rec("posts.get", 0.005, noon.Add(-30*time.Minute)),
		rec("posts.get", 0.005, noon.Add(-3*time.Hour)),
		rec("posts.get", 0.005, noon.Add(-3*24*time.Hour)),
		rec("posts.get", 0.005, noon.Add(-20*24*time.Hour)),
		rec("posts.get", 0.005, noon.Add(-60*24*time.Hour)),
	}

	s := agg.Summary(records)
	assert.Equal(t, 5, s.RecordCount)
	want := []float64{0.005, 0.01, 0.015, 0.02}
	for i, w := range s.Windows {
		assert.InDelta(t, want[i], w.Total, 1e-9, w.Window.Label)
	}
	assert.InDelta(t, 0.01, s.Today, 1e-9)
}

func TestByEndpoint(t *testing.T) {
	agg := tracker.NewAggregator(fixedClock(noon))
	records := []model.UsageRecord{
		rec("posts.get", 0.005, noon),
		rec("posts.get", 0.005, noon),
		rec("likes.create", 0.015, noon),
		rec("likes.create", 0.015, noon.Add(-48*time.Hour)),
	}
	got := agg.ByEndpoint(records, 24*time.Hour)
	assert.Len(t, got, 2)
	assert.Equal(t, "0.01", got["posts.get"].String())
	assert.Equal(t, "0.015", got["likes.create"].String())
}
