package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/ogulcanaydogan/xcli/pkg/storage"
	"github.com/ogulcanaydogan/xcli/pkg/tracker"
)

// Server exposes the local usage ledger as a read-only JSON API.
type Server struct {
	ledger   storage.Ledger
	spend    *tracker.Aggregator
	enforcer *tracker.Enforcer
	mux      *http.ServeMux
	logger   *slog.Logger
}

// NewServer creates an API server.
func NewServer(ledger storage.Ledger, spend *tracker.Aggregator, enforcer *tracker.Enforcer, logger *slog.Logger) *Server {
	s := &Server{
		ledger:   ledger,
		spend:    spend,
		enforcer: enforcer,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/usage", s.handleUsage)
	s.mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/v1/endpoints", s.handleEndpoints)
	s.mux.HandleFunc("GET /api/v1/budget", s.handleBudget)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("usage api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// records loads the ledger, narrowed by the optional endpoint and since query
// parameters. since is a Go duration such as 24h.
func (s *Server) records(w http.ResponseWriter, r *http.Request) ([]model.UsageRecord, time.Duration, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var window time.Duration
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			http.Error(w, "invalid since duration", http.StatusBadRequest)
			return nil, 0, false
		}
		window = d
	}

	records, err := s.ledger.LoadAll(ctx)
	if err != nil {
		s.logger.Error("load usage", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, 0, false
	}

	endpoint := r.URL.Query().Get("endpoint")
	cutoff := s.spend.Now().Add(-window)
	out := make([]model.UsageRecord, 0, len(records))
	for _, rec := range records {
		if endpoint != "" && rec.Endpoint != endpoint {
			continue
		}
		if window > 0 && rec.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, rec)
	}
	return out, window, true
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	records, _, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, records)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, _, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.spend.Summary(records))
}

type endpointSpend struct {
	Endpoint string  `json:"endpoint"`
	Total    float64 `json:"total"`
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	records, window, ok := s.records(w, r)
	if !ok {
		return
	}
	if window == 0 {
		window = model.WindowDay.Duration
	}

	totals := s.spend.ByEndpoint(records, window)
	out := make([]endpointSpend, 0, len(totals))
	for ep, total := range totals {
		out = append(out, endpointSpend{Endpoint: ep, Total: total.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	writeJSON(w, out)
}

type budgetResponse struct {
	DailyLimit *float64 `json:"daily,omitempty"`
	Action     string   `json:"action"`
	TodaySpend float64  `json:"today_spend"`
	Remaining  *float64 `json:"remaining,omitempty"`
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	st, err := s.enforcer.Status(ctx)
	if err != nil {
		s.logger.Error("budget status", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := budgetResponse{
		DailyLimit: st.Policy.DailyLimit,
		Action:     string(st.Policy.Action),
		TodaySpend: st.TodaySpend.InexactFloat64(),
	}
	if st.Remaining != nil {
		rem := st.Remaining.InexactFloat64()
		resp.Remaining = &rem
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
