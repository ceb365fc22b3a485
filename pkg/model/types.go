package model

import (
	"fmt"
	"strings"
	"time"
)

// Method is the HTTP verb an API operation is issued with.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Operation identifies one kind of API call by resource namespace and action.
type Operation struct {
	Namespace string
	Name      string
}

// Op is shorthand for constructing an Operation.
func Op(namespace, name string) Operation {
	return Operation{Namespace: namespace, Name: name}
}

// ID returns the stable "namespace.action" key used for pricing and logging.
func (o Operation) ID() string {
	return o.Namespace + "." + o.Name
}

func (o Operation) String() string { return o.ID() }

// ParseOperation splits an operation identifier such as "posts.create".
func ParseOperation(id string) (Operation, error) {
	ns, name, ok := strings.Cut(id, ".")
	if !ok || ns == "" || name == "" {
		return Operation{}, fmt.Errorf("invalid operation id %q: want namespace.action", id)
	}
	return Operation{Namespace: ns, Name: name}, nil
}

// UsageRecord is one admitted API call as written to the usage ledger.
type UsageRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Endpoint      string    `json:"endpoint"`
	Method        Method    `json:"method"`
	EstimatedCost float64   `json:"estimatedCost"`
}

// BudgetAction is what happens when a call would push today's spend over the limit.
type BudgetAction string

const (
	ActionBlock   BudgetAction = "block"
	ActionWarn    BudgetAction = "warn"
	ActionConfirm BudgetAction = "confirm"
)

// Valid reports whether a is a known action.
func (a BudgetAction) Valid() bool {
	switch a {
	case ActionBlock, ActionWarn, ActionConfirm:
		return true
	}
	return false
}

// ParseAction parses a budget action name, case-insensitively.
func ParseAction(s string) (BudgetAction, error) {
	a := BudgetAction(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown budget action %q (want block, warn or confirm)", s)
	}
	return a, nil
}

// BudgetPolicy is the daily spending cap. A nil DailyLimit means unlimited.
type BudgetPolicy struct {
	DailyLimit *float64     `json:"daily,omitempty"`
	Action     BudgetAction `json:"action"`
}

// DefaultPolicy is the policy in effect when none has been configured.
func DefaultPolicy() BudgetPolicy {
	return BudgetPolicy{Action: ActionWarn}
}

// HasLimit reports whether the policy caps daily spend.
func (p BudgetPolicy) HasLimit() bool {
	return p.DailyLimit != nil
}

// Validate checks that the limit, when set, is positive and the action is known.
func (p BudgetPolicy) Validate() error {
	if p.DailyLimit != nil && *p.DailyLimit <= 0 {
		return fmt.Errorf("daily limit must be positive, got %.2f", *p.DailyLimit)
	}
	if !p.Action.Valid() {
		return fmt.Errorf("unknown budget action %q", p.Action)
	}
	return nil
}

// Window is a trailing duration over which spend is summed.
type Window struct {
	Label    string        `json:"label"`
	Duration time.Duration `json:"duration"`
}

// Standard reporting windows. 30d is 30×24h, not a calendar month.
var (
	WindowHour  = Window{Label: "1h", Duration: time.Hour}
	WindowDay   = Window{Label: "24h", Duration: 24 * time.Hour}
	WindowWeek  = Window{Label: "7d", Duration: 7 * 24 * time.Hour}
	WindowMonth = Window{Label: "30d", Duration: 30 * 24 * time.Hour}
)

// StandardWindows returns the reporting windows, shortest first.
func StandardWindows() []Window {
	return []Window{WindowHour, WindowDay, WindowWeek, WindowMonth}
}

// SpendSummary holds spend for the standard windows and the current local day.
type SpendSummary struct {
	Windows     []WindowSpend `json:"windows"`
	Today       float64       `json:"today"`
	RecordCount int           `json:"record_count"`
}

// WindowSpend is the total spend for one window.
type WindowSpend struct {
	Window Window  `json:"window"`
	Total  float64 `json:"total"`
}

// StartOfDay returns local midnight of the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
