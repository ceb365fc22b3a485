package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/xcli/pkg/model"
)

func TestOperation_ID(t *testing.T) {
	assert.Equal(t, "posts.create", model.Op("posts", "create").ID())
}

func TestParseOperation(t *testing.T) {
	op, err := model.ParseOperation("media.append")
	require.NoError(t, err)
	assert.Equal(t, "media", op.Namespace)
	assert.Equal(t, "append", op.Name)

	for _, bad := range []string{"", "posts", ".create", "posts."} {
		_, err := model.ParseOperation(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseAction(t *testing.T) {
	a, err := model.ParseAction(" Block ")
	require.NoError(t, err)
	assert.Equal(t, model.ActionBlock, a)

	_, err = model.ParseAction("ignore")
	assert.Error(t, err)
}

func TestBudgetPolicy_Validate(t *testing.T) {
	limit := 2.0
	zero := 0.0

	assert.NoError(t, model.DefaultPolicy().Validate())
	assert.NoError(t, model.BudgetPolicy{DailyLimit: &limit, Action: model.ActionConfirm}.Validate())
	assert.Error(t, model.BudgetPolicy{DailyLimit: &zero, Action: model.ActionBlock}.Validate())
	assert.Error(t, model.BudgetPolicy{Action: "nope"}.Validate())
}

func TestDefaultPolicy(t *testing.T) {
	p := model.DefaultPolicy()
	assert.False(t, p.HasLimit())
	assert.Equal(t, model.ActionWarn, p.Action)
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("test", 3*60*60)
	ts := time.Date(2026, 3, 14, 15, 9, 26, 5, loc)

	start := model.StartOfDay(ts)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, loc), start)
	assert.Equal(t, loc, start.Location())
}

func TestStandardWindows_Ascending(t *testing.T) {
	windows := model.StandardWindows()
	require.Len(t, windows, 4)
	for i := 1; i < len(windows); i++ {
		assert.Greater(t, windows[i].Duration, windows[i-1].Duration)
	}
	assert.Equal(t, 30*24*time.Hour, windows[3].Duration)
}
