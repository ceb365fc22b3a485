package tracker

import (
	"context"
	"log/slog"

	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/ogulcanaydogan/xcli/pkg/pricing"
	"github.com/ogulcanaydogan/xcli/pkg/storage"
	"github.com/ogulcanaydogan/xcli/pkg/xapi"
)

// Accountant wraps a Caller so that every call is budget-checked and logged.
// Commands and the media uploader only ever receive an Accountant.
//
// A usage record is written for every admitted call, before dispatch, so the
// ledger counts attempts: a call that later fails upstream is still recorded.
type Accountant struct {
	next      xapi.Caller
	enforcer  *Enforcer
	ledger    storage.Ledger
	estimator *pricing.Estimator
	logger    *slog.Logger
}

var _ xapi.Caller = (*Accountant)(nil)

// NewAccountant decorates next with budget enforcement and usage logging.
func NewAccountant(next xapi.Caller, enforcer *Enforcer, ledger storage.Ledger, estimator *pricing.Estimator, logger *slog.Logger) *Accountant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accountant{
		next:      next,
		enforcer:  enforcer,
		ledger:    ledger,
		estimator: estimator,
		logger:    logger,
	}
}

// Call checks the budget, records the attempt and then performs the call.
func (a *Accountant) Call(ctx context.Context, req *xapi.Request) (*xapi.Response, error) {
	opID := req.Op.ID()

	if err := a.enforcer.Check(ctx, opID); err != nil {
		a.logger.Info("call rejected", "operation", opID, "error", err)
		return nil, err
	}

	record := model.UsageRecord{
		Timestamp:     a.enforcer.Now(),
		Endpoint:      opID,
		Method:        a.estimator.MethodOf(opID),
		EstimatedCost: a.estimator.Estimate(opID),
	}
	// Accounting is best effort: a ledger failure must not hide the call.
	if err := a.ledger.Append(context.WithoutCancel(ctx), record); err != nil {
		a.logger.Error("record usage", "operation", opID, "error", err)
	}

	resp, err := a.next.Call(ctx, req)
	if err != nil {
		a.logger.Debug("call failed", "operation", opID, "error", err)
		return nil, err
	}
	return resp, nil
}
