package storage

import (
	"context"

	"github.com/ogulcanaydogan/xcli/pkg/model"
)

// Ledger is the append-only log of admitted API calls.
type Ledger interface {
	// Append durably writes one record. The first append creates the backing store.
	Append(ctx context.Context, record model.UsageRecord) error

	// LoadAll returns every well-formed record in write order. Malformed
	// entries are skipped, never reported.
	LoadAll(ctx context.Context) ([]model.UsageRecord, error)

	// Clear removes the whole log.
	Clear(ctx context.Context) error
}

// PolicyStore persists the singleton budget policy.
type PolicyStore interface {
	// GetPolicy returns the configured policy, or model.DefaultPolicy if none is set.
	GetPolicy(ctx context.Context) (model.BudgetPolicy, error)

	// SetPolicy creates or replaces the policy.
	SetPolicy(ctx context.Context, policy model.BudgetPolicy) error

	// ClearPolicy removes the policy, reverting to the default.
	ClearPolicy(ctx context.Context) error
}

// Store bundles a ledger and a policy store sharing one backend.
type Store interface {
	Ledger
	PolicyStore

	// Close releases resources.
	Close() error
}
