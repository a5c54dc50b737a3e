package alerts

import (
	"context"

	"github.com/wattmon/wattmon/pkg/model"
)

// Decision is the outcome of evaluating one reading against the alert
// state machine.
type Decision int

const (
	// DecisionNone means no alert should be dispatched for this reading.
	DecisionNone Decision = iota
	// DecisionEmit means one alert should be dispatched now.
	DecisionEmit
)

// Alert carries the context of one low-energy notification.
type Alert struct {
	Reading       model.Reading `json:"reading"`
	Threshold     float64       `json:"threshold"`
	DaysRemaining float64       `json:"days_remaining"`
	Message       string        `json:"message"`
}

// DeliveryReport summarizes a multi-recipient delivery attempt.
type DeliveryReport struct {
	Delivered []string `json:"delivered,omitempty"`
	Failed    []string `json:"failed,omitempty"`
}

// AllFailed reports whether every attempted delivery failed.
func (r DeliveryReport) AllFailed() bool {
	return len(r.Delivered) == 0 && len(r.Failed) > 0
}

// Partial reports whether some but not all deliveries succeeded.
func (r DeliveryReport) Partial() bool {
	return len(r.Delivered) > 0 && len(r.Failed) > 0
}

// Notifier delivers alerts to an external channel. Delivery is
// best-effort per recipient; the returned error is non-nil only when
// nothing was delivered at all.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert and reports the per-recipient outcome.
	Send(ctx context.Context, alert Alert) (DeliveryReport, error)
}
