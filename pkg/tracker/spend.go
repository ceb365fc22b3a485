package tracker

import (
	"time"

	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/shopspring/decimal"
)

// Aggregator sums ledger spend over trailing windows relative to its clock.
// Sums are exact decimals so that limits compare without float drift.
type Aggregator struct {
	now func() time.Time
}

// NewAggregator creates an aggregator. A nil clock means time.Now.
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now}
}

// Now returns the aggregator's current time.
func (a *Aggregator) Now() time.Time {
	return a.now()
}

// SumSince totals records with timestamp >= now - window. A negative window
// is treated as zero.
func (a *Aggregator) SumSince(records []model.UsageRecord, window time.Duration) decimal.Decimal {
	if window < 0 {
		window = 0
	}
	return sumFrom(records, a.now().Add(-window))
}

// SumSinceLocalMidnight totals records since the start of the current local day.
func (a *Aggregator) SumSinceLocalMidnight(records []model.UsageRecord) decimal.Decimal {
	return sumFrom(records, model.StartOfDay(a.now().Local()))
}

// Summary computes the standard windows and today's spend in one call.
func (a *Aggregator) Summary(records []model.UsageRecord) model.SpendSummary {
	windows := model.StandardWindows()
	summary := model.SpendSummary{
		Windows:     make([]model.WindowSpend, 0, len(windows)),
		Today:       a.SumSinceLocalMidnight(records).InexactFloat64(),
		RecordCount: len(records),
	}
	for _, w := range windows {
		summary.Windows = append(summary.Windows, model.WindowSpend{
			Window: w,
			Total:  a.SumSince(records, w.Duration).InexactFloat64(),
		})
	}
	return summary
}

// ByEndpoint totals spend per operation identifier within the window.
func (a *Aggregator) ByEndpoint(records []model.UsageRecord, window time.Duration) map[string]decimal.Decimal {
	cutoff := a.now().Add(-window)
	out := make(map[string]decimal.Decimal)
	for _, r := range records {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		out[r.Endpoint] = out[r.Endpoint].Add(decimal.NewFromFloat(r.EstimatedCost))
	}
	return out
}

func sumFrom(records []model.UsageRecord, cutoff time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(r.EstimatedCost))
	}
	return total
}
