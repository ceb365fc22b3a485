package storage

import (
	"context"
	"sync"

	"github.com/ogulcanaydogan/xcli/pkg/model"
)

// Memory is an in-process Store, used in tests and when persistence is not wanted.
type Memory struct {
	mu      sync.RWMutex
	records []model.UsageRecord
	policy  *model.BudgetPolicy
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, record model.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *Memory) LoadAll(_ context.Context) ([]model.UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return nil, nil
	}
	out := make([]model.UsageRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

func (m *Memory) GetPolicy(_ context.Context) (model.BudgetPolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.policy == nil {
		return model.DefaultPolicy(), nil
	}
	return *m.policy, nil
}

func (m *Memory) SetPolicy(_ context.Context, policy model.BudgetPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = &policy
	return nil
}

func (m *Memory) ClearPolicy(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = nil
	return nil
}

func (m *Memory) Close() error { return nil }
