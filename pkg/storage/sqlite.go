package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/xcli/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements Store in a single SQLite database file.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets a reader (xcli usage) run while another invocation appends.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Append(ctx context.Context, record model.UsageRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if record.Method == "" {
		record.Method = model.MethodGet
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_records (id, endpoint, method, estimated_cost, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), record.Endpoint, string(record.Method),
		record.EstimatedCost, record.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

func (s *SQLite) LoadAll(ctx context.Context) ([]model.UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, endpoint, method, estimated_cost, timestamp FROM usage_records ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var records []model.UsageRecord
	for rows.Next() {
		var (
			seq    int64
			r      model.UsageRecord
			method string
			ts     string
		)
		if err := rows.Scan(&seq, &r.Endpoint, &method, &r.EstimatedCost, &ts); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		r.Method = model.Method(method)
		r.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil || !wellFormed(r) {
			s.logger.Debug("skipping malformed ledger row", "seq", seq)
			continue
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM usage_records"); err != nil {
		return fmt.Errorf("clear usage records: %w", err)
	}
	return nil
}

func (s *SQLite) GetPolicy(ctx context.Context) (model.BudgetPolicy, error) {
	var (
		limit  sql.NullFloat64
		action string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT daily_limit, action FROM budget_policy WHERE id = 1",
	).Scan(&limit, &action)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultPolicy(), nil
	}
	if err != nil {
		return model.BudgetPolicy{}, fmt.Errorf("get budget policy: %w", err)
	}

	policy := model.BudgetPolicy{Action: model.BudgetAction(action)}
	if limit.Valid {
		v := limit.Float64
		policy.DailyLimit = &v
	}
	return policy, nil
}

func (s *SQLite) SetPolicy(ctx context.Context, policy model.BudgetPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	var limit sql.NullFloat64
	if policy.DailyLimit != nil {
		limit = sql.NullFloat64{Float64: *policy.DailyLimit, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_policy (id, daily_limit, action, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   daily_limit = excluded.daily_limit,
		   action = excluded.action,
		   updated_at = excluded.updated_at`,
		limit, string(policy.Action), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set budget policy: %w", err)
	}
	return nil
}

func (s *SQLite) ClearPolicy(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM budget_policy"); err != nil {
		return fmt.Errorf("clear budget policy: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
