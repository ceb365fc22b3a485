package alerts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/xcli/pkg/alerts"
)

func TestSlackNotifier_Name(t *testing.T) {
	n := alerts.NewSlackNotifier("https://hooks.slack.com/test", "#test")
	assert.Equal(t, "slack", n.Name())
}

func TestSlackNotifier_Send(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#x-api-costs")
	err := n.Send(context.Background(), alerts.Alert{
		Level:      alerts.AlertExceeded,
		Operation:  "media.append",
		Action:     "warn",
		DailyLimit: 5,
		TodaySpend: 4.999,
		CallCost:   0.005,
		Message:    "daily budget exceeded",
	})
	require.NoError(t, err)
	assert.Equal(t, "#x-api-costs", received["channel"])

	attachments, ok := received["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)
	first := attachments[0].(map[string]any)
	assert.Equal(t, "#ff9900", first["color"])
	assert.Equal(t, "daily budget exceeded", first["text"])
}

func TestSlackNotifier_BlockedColor(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "")
	require.NoError(t, n.Send(context.Background(), alerts.Alert{Level: alerts.AlertBlocked}))

	first := received["attachments"].([]any)[0].(map[string]any)
	assert.Equal(t, "#cc0000", first["color"])
	_, hasChannel := received["channel"]
	assert.False(t, hasChannel)
}

func TestSlackNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#test")
	err := n.Send(context.Background(), alerts.Alert{Level: alerts.AlertExceeded})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestAlert_Projected(t *testing.T) {
	a := alerts.Alert{TodaySpend: 1.5, CallCost: 0.25}
	assert.InDelta(t, 1.75, a.Projected(), 1e-12)
}
