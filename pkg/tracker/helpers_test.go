package tracker_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/ogulcanaydogan/xcli/pkg/pricing"
)

var noon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func limit(v float64) *float64 { return &v }

func rec(endpoint string, cost float64, ts time.Time) model.UsageRecord {
	return model.UsageRecord{Timestamp: ts, Endpoint: endpoint, Method: model.MethodGet, EstimatedCost: cost}
}

func testEstimator() *pricing.Estimator {
	return pricing.New([]pricing.Endpoint{
		{ID: "posts.create", Method: model.MethodPost, Cost: 0.01},
		{ID: "posts.get", Method: model.MethodGet, Cost: 0.005},
		{ID: "dms.send", Method: model.MethodPost, Cost: 0.02},
	}, pricing.DefaultCost)
}

type scriptedPrompter struct {
	answer bool
	err    error
	asked  []string
}

func (p *scriptedPrompter) Confirm(_ context.Context, q string) (bool, error) {
	p.asked = append(p.asked, q)
	return p.answer, p.err
}
