package pricing_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/ogulcanaydogan/xcli/pkg/pricing"
)

func TestDefault_KnownOperations(t *testing.T) {
	e := pricing.Default()

	tests := []struct {
		id     string
		method model.Method
		cost   float64
	}{
		{"posts.create", model.MethodPost, 0.01},
		{"posts.delete", model.MethodDelete, 0.01},
		{"posts.search", model.MethodGet, 0.005},
		{"likes.create", model.MethodPost, 0.015},
		{"media.append", model.MethodPost, 0.005},
		{"media.status", model.MethodGet, 0.001},
		{"usage.get", model.MethodGet, 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.method, e.MethodOf(tt.id))
			assert.InDelta(t, tt.cost, e.Estimate(tt.id), 1e-12)
		})
	}
}

func TestDefault_UnknownOperation(t *testing.T) {
	e := pricing.Default()

	assert.InDelta(t, pricing.DefaultCost, e.Estimate("spaces.search"), 1e-12)
	assert.Greater(t, e.Estimate("spaces.search"), 0.0)
	assert.Equal(t, model.MethodGet, e.MethodOf("spaces.search"))

	_, ok := e.Lookup("spaces.search")
	assert.False(t, ok)
}

func TestOperations_Sorted(t *testing.T) {
	ops := pricing.Default().Operations()
	require.NotEmpty(t, ops)
	for i := 1; i < len(ops); i++ {
		assert.Less(t, ops[i-1].ID, ops[i].ID)
	}
}

func TestLoadTableFromBytes(t *testing.T) {
	data := []byte(`
updated: "2026-09-01"
default_cost: 0.02
operations:
  - id: posts.create
    method: post
    cost: 0.02
  - id: spaces.search
    cost: 0.005
`)
	table, err := pricing.LoadTableFromBytes(data)
	require.NoError(t, err)
	require.Len(t, table.Operations, 2)
	assert.Equal(t, model.MethodPost, table.Operations[0].Method)
	assert.Equal(t, model.MethodGet, table.Operations[1].Method)

	e := pricing.Default().WithOverrides(table)
	assert.InDelta(t, 0.02, e.Estimate("posts.create"), 1e-12)
	assert.InDelta(t, 0.005, e.Estimate("spaces.search"), 1e-12)
	assert.InDelta(t, 0.02, e.Estimate("nothing.here"), 1e-12)
	// Untouched entries survive the merge.
	assert.InDelta(t, 0.015, e.Estimate("likes.create"), 1e-12)
}

func TestLoadTableFromBytes_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "operations: [",
		"bad id":        "operations:\n  - id: nodot\n    cost: 1\n",
		"negative cost": "operations:\n  - id: posts.get\n    cost: -1\n",
		"bad method":    "operations:\n  - id: posts.get\n    method: PATCHY\n",
		"negative dflt": "default_cost: -0.5\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := pricing.LoadTableFromBytes([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("operations:\n  - id: dms.send\n    method: POST\n    cost: 0.02\n"), 0o644))

	e, err := pricing.NewFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, e.Estimate("dms.send"), 1e-12)

	_, err = pricing.NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func BenchmarkEstimate(b *testing.B) {
	e := pricing.Default()
	for b.Loop() {
		_ = e.Estimate("posts.create")
	}
}
