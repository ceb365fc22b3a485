package storage_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/ogulcanaydogan/xcli/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func record(endpoint string, cost float64, ts time.Time) model.UsageRecord {
	return model.UsageRecord{Timestamp: ts, Endpoint: endpoint, Method: model.MethodGet, EstimatedCost: cost}
}

func TestJSONLLedger_AppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "usage.jsonl")
	ledger := storage.NewJSONLLedger(path, testLogger())

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, ledger.Append(context.Background(), record("posts.create", 0.01, time.Now())))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestJSONLLedger_LoadAll_WriteOrder(t *testing.T) {
	ledger := storage.NewJSONLLedger(filepath.Join(t.TempDir(), "usage.jsonl"), testLogger())
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	endpoints := []string{"posts.search", "posts.create", "media.append"}
	for i, ep := range endpoints {
		require.NoError(t, ledger.Append(ctx, record(ep, 0.005, base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := ledger.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, ep := range endpoints {
		assert.Equal(t, ep, records[i].Endpoint)
		assert.True(t, records[i].Timestamp.Equal(base.Add(time.Duration(i)*time.Minute)))
	}
}

func TestJSONLLedger_LoadAll_Missing(t *testing.T) {
	ledger := storage.NewJSONLLedger(filepath.Join(t.TempDir(), "absent.jsonl"), testLogger())
	records, err := ledger.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONLLedger_LoadAll_SkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.jsonl")
	data := `{"timestamp":"2026-05-01T10:00:00Z","endpoint":"posts.create","method":"POST","estimatedCost":0.01}
{"timestamp":"2026-05-01T10:01:00Z","endpoint":
not json at all

{"endpoint":"posts.get","method":"GET","estimatedCost":0.005}
{"timestamp":"2026-05-01T10:02:00Z","endpoint":"posts.search","method":"GET","estimatedCost":0.005}
{"timestamp":"2026-05-01T10:03:00Z","endpoint":"users.me","method":"GET","estimatedCost":-1}
{"timestamp":"2026-05-01T10:04:00Z","endpoint":"likes.create","method":"POST","estimatedCost":0.015}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	ledger := storage.NewJSONLLedger(path, testLogger())
	records, err := ledger.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "posts.create", records[0].Endpoint)
	assert.Equal(t, "posts.search", records[1].Endpoint)
	assert.Equal(t, "likes.create", records[2].Endpoint)
}

func TestJSONLLedger_LoadAll_SkipsOversizedLine(t *testing.T) {
	good := func(endpoint string) string {
		return `{"timestamp":"2026-05-01T10:00:00Z","endpoint":"` + endpoint + `","method":"GET","estimatedCost":0.005}` + "\n"
	}
	huge := strings.Repeat("x", 2<<20) + "\n"

	tests := []struct {
		name string
		data string
		want []string
	}{
		{"oversized in the middle", good("posts.get") + huge + good("posts.search") + good("users.me"), []string{"posts.get", "posts.search", "users.me"}},
		{"oversized first", huge + good("posts.get"), []string{"posts.get"}},
		{"oversized torn tail", good("posts.get") + strings.TrimSuffix(huge, "\n"), []string{"posts.get"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "usage.jsonl")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o600))

			records, err := storage.NewJSONLLedger(path, testLogger()).LoadAll(context.Background())
			require.NoError(t, err)
			var got []string
			for _, r := range records {
				got = append(got, r.Endpoint)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONLLedger_WireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.jsonl")
	ledger := storage.NewJSONLLedger(path, testLogger())
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Append(context.Background(), model.UsageRecord{
		Timestamp: ts, Endpoint: "posts.create", Method: model.MethodPost, EstimatedCost: 0.01,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"timestamp":"2026-05-01T10:00:00Z","endpoint":"posts.create","method":"POST","estimatedCost":0.01}`,
		string(data))
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestJSONLLedger_Clear(t *testing.T) {
	ledger := storage.NewJSONLLedger(filepath.Join(t.TempDir(), "usage.jsonl"), testLogger())
	ctx := context.Background()

	require.NoError(t, ledger.Clear(ctx))
	require.NoError(t, ledger.Append(ctx, record("posts.get", 0.005, time.Now())))
	require.NoError(t, ledger.Clear(ctx))

	records, err := ledger.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
