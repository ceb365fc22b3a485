package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ogulcanaydogan/xcli/pkg/model"
)

// PolicyFile stores the budget policy as a small JSON document.
type PolicyFile struct {
	path string
}

// NewPolicyFile returns a policy store backed by the file at path.
func NewPolicyFile(path string) *PolicyFile {
	return &PolicyFile{path: path}
}

// Path returns the budget file location.
func (p *PolicyFile) Path() string { return p.path }

func (p *PolicyFile) GetPolicy(_ context.Context) (model.BudgetPolicy, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.DefaultPolicy(), nil
	}
	if err != nil {
		return model.BudgetPolicy{}, fmt.Errorf("read budget file: %w", err)
	}

	var policy model.BudgetPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return model.BudgetPolicy{}, fmt.Errorf("parse budget file %s: %w", p.path, err)
	}
	if policy.Action == "" {
		policy.Action = model.ActionWarn
	}
	if err := policy.Validate(); err != nil {
		return model.BudgetPolicy{}, fmt.Errorf("budget file %s: %w", p.path, err)
	}
	return policy, nil
}

func (p *PolicyFile) SetPolicy(_ context.Context, policy model.BudgetPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(policy, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal budget: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create budget directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".budget-*.json")
	if err != nil {
		return fmt.Errorf("create temp budget file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write budget file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write budget file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace budget file: %w", err)
	}
	return nil
}

func (p *PolicyFile) ClearPolicy(_ context.Context) error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove budget file: %w", err)
	}
	return nil
}

// FileStore is the default Store: an NDJSON ledger plus a JSON budget file.
type FileStore struct {
	*JSONLLedger
	*PolicyFile
}

// NewFileStore combines a ledger file and a budget file into one Store.
func NewFileStore(ledger *JSONLLedger, policy *PolicyFile) *FileStore {
	return &FileStore{JSONLLedger: ledger, PolicyFile: policy}
}

// Close is a no-op; files are opened per operation.
func (s *FileStore) Close() error { return nil }
