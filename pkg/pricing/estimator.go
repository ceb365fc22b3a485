package pricing

import (
	"sort"

	"github.com/ogulcanaydogan/xcli/pkg/model"
)

// Estimator maps operation identifiers to an estimated USD cost and HTTP verb.
// It is immutable after construction and safe for concurrent use.
type Estimator struct {
	entries     map[string]Endpoint
	defaultCost float64
}

// New creates an estimator from the given entries. Later entries win.
func New(entries []Endpoint, defaultCost float64) *Estimator {
	m := make(map[string]Endpoint, len(entries))
	for _, ep := range entries {
		m[ep.ID] = ep
	}
	return &Estimator{entries: m, defaultCost: defaultCost}
}

// Default returns an estimator over the built-in table.
func Default() *Estimator {
	return New(defaultTable, DefaultCost)
}

// NewFromFile returns the built-in table with the overrides in a YAML file applied.
func NewFromFile(path string) (*Estimator, error) {
	t, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return Default().WithOverrides(t), nil
}

// WithOverrides returns a copy of e with t's entries added or replaced.
func (e *Estimator) WithOverrides(t *Table) *Estimator {
	merged := make([]Endpoint, 0, len(e.entries)+len(t.Operations))
	for _, ep := range e.entries {
		merged = append(merged, ep)
	}
	merged = append(merged, t.Operations...)

	defaultCost := e.defaultCost
	if t.DefaultCost != nil {
		defaultCost = *t.DefaultCost
	}
	return New(merged, defaultCost)
}

// Estimate returns the cost of one call to the operation.
func (e *Estimator) Estimate(operationID string) float64 {
	if ep, ok := e.entries[operationID]; ok {
		return ep.Cost
	}
	return e.defaultCost
}

// MethodOf returns the HTTP verb of the operation.
func (e *Estimator) MethodOf(operationID string) model.Method {
	if ep, ok := e.entries[operationID]; ok && ep.Method != "" {
		return ep.Method
	}
	return DefaultMethod
}

// Lookup reports whether the operation has an explicit table entry.
func (e *Estimator) Lookup(operationID string) (Endpoint, bool) {
	ep, ok := e.entries[operationID]
	return ep, ok
}

// DefaultCost returns the cost charged for unknown operations.
func (e *Estimator) DefaultCost() float64 {
	return e.defaultCost
}

// Operations returns every table entry sorted by identifier.
func (e *Estimator) Operations() []Endpoint {
	out := make([]Endpoint, 0, len(e.entries))
	for _, ep := range e.entries {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
