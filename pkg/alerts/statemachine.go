package alerts

import "github.com/wattmon/wattmon/pkg/model"

// StateMachine tracks threshold crossings across polling cycles and
// caps the number of alerts dispatched within one low-energy episode.
// An episode is a contiguous run of at-or-below-threshold readings; the
// first above-threshold reading ends it and discards the counter.
//
// The machine performs no I/O. The caller dispatches notifications
// based on the returned Decision, keeping the machine independently
// testable. Not safe for concurrent use; it is owned by a single
// monitor loop.
type StateMachine struct {
	threshold float64
	maxAlerts int

	below bool
	sent  int
}

// NewStateMachine creates a machine in the Normal state.
func NewStateMachine(threshold float64, maxAlerts int) *StateMachine {
	if maxAlerts < 1 {
		maxAlerts = 1
	}
	return &StateMachine{threshold: threshold, maxAlerts: maxAlerts}
}

// Evaluate advances the machine with a new reading. A reading exactly
// at the threshold counts as below.
func (m *StateMachine) Evaluate(r *model.Reading) Decision {
	if r.RemainingEnergy > m.threshold {
		m.below = false
		m.sent = 0
		return DecisionNone
	}

	m.below = true
	if m.sent >= m.maxAlerts {
		return DecisionNone
	}
	m.sent++
	return DecisionEmit
}

// Threshold returns the configured low-energy threshold.
func (m *StateMachine) Threshold() float64 { return m.threshold }

// MaxAlerts returns the per-episode alert cap.
func (m *StateMachine) MaxAlerts() int { return m.maxAlerts }

// State returns whether the machine is in a low-energy episode and how
// many alerts the episode has dispatched.
func (m *StateMachine) State() (below bool, sent int) {
	return m.below, m.sent
}
