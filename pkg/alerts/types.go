package alerts

import "context"

// AlertLevel says what the budget enforcer did with an over-budget call.
type AlertLevel string

const (
	AlertExceeded AlertLevel = "exceeded" // Over budget, call admitted anyway
	AlertBlocked  AlertLevel = "blocked"  // Over budget, call refused or declined
)

// Alert describes one call that would take today's spend past the daily limit.
type Alert struct {
	Level      AlertLevel `json:"level"`
	Operation  string     `json:"operation"`
	Action     string     `json:"action"`
	DailyLimit float64    `json:"daily_limit"`
	TodaySpend float64    `json:"today_spend"`
	CallCost   float64    `json:"call_cost"`
	Message    string     `json:"message"`
}

// Projected is the spend today would reach if the call went through.
func (a Alert) Projected() float64 {
	return a.TodaySpend + a.CallCost
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
