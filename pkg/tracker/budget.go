package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ogulcanaydogan/xcli/pkg/alerts"
	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/ogulcanaydogan/xcli/pkg/pricing"
	"github.com/ogulcanaydogan/xcli/pkg/storage"
	"github.com/shopspring/decimal"
)

var (
	// ErrBudgetExceeded is returned when the block action refuses a call.
	ErrBudgetExceeded = errors.New("daily budget exceeded")

	// ErrUserCancelled is returned when the operator declines an over-budget call.
	ErrUserCancelled = errors.New("cancelled by user")
)

// EnforcerOptions holds the optional collaborators of an Enforcer.
type EnforcerOptions struct {
	// Prompter answers the confirm action. Nil declines every confirmation.
	Prompter Prompter

	// Notifiers receive an alert for every over-budget call.
	Notifiers []alerts.Notifier

	// Diagnostics receives the warn action's message. Defaults to os.Stderr.
	Diagnostics io.Writer

	// Clock anchors "today". Defaults to time.Now.
	Clock func() time.Time
}

// Enforcer decides, before dispatch, whether a call fits in today's budget.
//
// The check reads the ledger and then decides; there is no cross-process lock,
// so two concurrent invocations can both pass and jointly exceed the cap.
type Enforcer struct {
	policies  storage.PolicyStore
	ledger    storage.Ledger
	estimator *pricing.Estimator
	spend     *Aggregator
	prompter  Prompter
	notifiers []alerts.Notifier
	diag      io.Writer
	logger    *slog.Logger
}

// NewEnforcer creates a budget enforcer.
func NewEnforcer(policies storage.PolicyStore, ledger storage.Ledger, estimator *pricing.Estimator, opts EnforcerOptions, logger *slog.Logger) *Enforcer {
	if opts.Prompter == nil {
		opts.Prompter = declinePrompter{}
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = os.Stderr
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enforcer{
		policies:  policies,
		ledger:    ledger,
		estimator: estimator,
		spend:     NewAggregator(opts.Clock),
		prompter:  opts.Prompter,
		notifiers: opts.Notifiers,
		diag:      opts.Diagnostics,
		logger:    logger,
	}
}

// Now returns the enforcer's clock reading.
func (e *Enforcer) Now() time.Time {
	return e.spend.Now()
}

// Status is a snapshot of the policy against today's spend.
type Status struct {
	Policy     model.BudgetPolicy
	TodaySpend decimal.Decimal
	Remaining  *decimal.Decimal
}

// Status reports today's spend and what remains under the policy.
func (e *Enforcer) Status(ctx context.Context) (*Status, error) {
	policy, err := e.policies.GetPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budget policy: %w", err)
	}
	records, err := e.ledger.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load usage ledger: %w", err)
	}

	st := &Status{Policy: policy, TodaySpend: e.spend.SumSinceLocalMidnight(records)}
	if policy.HasLimit() {
		remaining := decimal.Max(decimal.NewFromFloat(*policy.DailyLimit).Sub(st.TodaySpend), decimal.Zero)
		st.Remaining = &remaining
	}
	return st, nil
}

// Check admits or rejects a pending call to operationID. A nil error admits.
func (e *Enforcer) Check(ctx context.Context, operationID string) error {
	policy, err := e.policies.GetPolicy(ctx)
	if err != nil {
		return fmt.Errorf("load budget policy: %w", err)
	}
	if !policy.HasLimit() {
		return nil
	}

	records, err := e.ledger.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load usage ledger: %w", err)
	}

	today := e.spend.SumSinceLocalMidnight(records)
	cost := decimal.NewFromFloat(e.estimator.Estimate(operationID))
	limit := decimal.NewFromFloat(*policy.DailyLimit)
	projected := today.Add(cost)
	if projected.LessThanOrEqual(limit) {
		return nil
	}

	alert := alerts.Alert{
		Operation:  operationID,
		Action:     string(policy.Action),
		DailyLimit: limit.InexactFloat64(),
		TodaySpend: today.InexactFloat64(),
		CallCost:   cost.InexactFloat64(),
		Message: fmt.Sprintf("%s ($%s) would bring today's spend to $%s, over the $%s daily limit",
			operationID, cost.StringFixed(4), projected.StringFixed(4), limit.StringFixed(2)),
	}

	switch policy.Action {
	case model.ActionBlock:
		alert.Level = alerts.AlertBlocked
		e.logger.Warn("budget blocked call", "operation", operationID, "today", today.String(), "limit", limit.String())
		e.notify(ctx, alert)
		return fmt.Errorf("%w: %s", ErrBudgetExceeded, alert.Message)

	case model.ActionWarn:
		alert.Level = alerts.AlertExceeded
		fmt.Fprintf(e.diag, "warning: %s\n", alert.Message)
		e.logger.Warn("budget exceeded, call admitted", "operation", operationID, "today", today.String(), "limit", limit.String())
		e.notify(ctx, alert)
		return nil

	case model.ActionConfirm:
		ok, err := e.prompter.Confirm(ctx, alert.Message+". Continue?")
		if errors.Is(err, ErrNonInteractive) {
			alert.Level = alerts.AlertBlocked
			e.notify(ctx, alert)
			return fmt.Errorf("%w: %s; confirmation needs an interactive terminal", ErrUserCancelled, alert.Message)
		}
		if err != nil {
			return fmt.Errorf("budget confirmation: %w", err)
		}
		if !ok {
			alert.Level = alerts.AlertBlocked
			e.notify(ctx, alert)
			return fmt.Errorf("%w: %s", ErrUserCancelled, alert.Message)
		}
		alert.Level = alerts.AlertExceeded
		e.logger.Info("over-budget call confirmed", "operation", operationID)
		e.notify(ctx, alert)
		return nil

	default:
		return fmt.Errorf("unknown budget action %q", policy.Action)
	}
}

// notify delivers an alert to every notifier; failures are logged only.
func (e *Enforcer) notify(ctx context.Context, alert alerts.Alert) {
	for _, n := range e.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			e.logger.Error("send alert failed",
				"notifier", n.Name(),
				"operation", alert.Operation,
				"error", err,
			)
		}
	}
}
