package alerts_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/xcli/pkg/alerts"
)

func TestWebhookNotifier_Name(t *testing.T) {
	n := alerts.NewWebhookNotifier("https://example.com/webhook", "")
	assert.Equal(t, "webhook", n.Name())
}

func TestWebhookNotifier_Send(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), alerts.Alert{
		Level:      alerts.AlertExceeded,
		Operation:  "posts.create",
		Action:     "warn",
		DailyLimit: 2.00,
		TodaySpend: 1.99,
		CallCost:   0.02,
	})
	require.NoError(t, err)
	assert.Equal(t, "budget.exceeded", received["event"])
	assert.NotEmpty(t, received["timestamp"])

	alert, ok := received["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "posts.create", alert["operation"])
}

func TestWebhookNotifier_Signature(t *testing.T) {
	var (
		signature string
		body      []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get(alerts.SignatureHeader)
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "test-secret")
	require.NoError(t, n.Send(context.Background(), alerts.Alert{Level: alerts.AlertBlocked}))

	assert.Contains(t, signature, "sha256=")
	assert.True(t, alerts.VerifySignature(body, "test-secret", signature))
	assert.False(t, alerts.VerifySignature(body, "other-secret", signature))
	assert.False(t, alerts.VerifySignature(body, "test-secret", "md5=abc"))
}

func TestWebhookNotifier_Send_NoSignature(t *testing.T) {
	var hasSignature bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSignature = r.Header.Get(alerts.SignatureHeader) != ""
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	require.NoError(t, n.Send(context.Background(), alerts.Alert{Level: alerts.AlertExceeded}))
	assert.False(t, hasSignature)
}

func TestWebhookNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), alerts.Alert{Level: alerts.AlertExceeded})
	assert.ErrorContains(t, err, "status 503")
}
