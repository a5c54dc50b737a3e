// Package monitor runs the acquisition cycle: poll the meter, persist
// the reading, derive estimates, evaluate the alert state machine and
// dispatch notifications. One loop owns one meter; nothing here is
// shared across goroutines.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wattmon/wattmon/pkg/alerts"
	"github.com/wattmon/wattmon/pkg/estimator"
	"github.com/wattmon/wattmon/pkg/model"
	"github.com/wattmon/wattmon/pkg/storage"
)

// historyWindow covers a full week of samples at a 10-minute interval.
const historyWindow = 1024

// State reports the lifecycle of a Loop.
type State int32

const (
	Stopped State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Fetcher acquires one reading per call. *meter.Acquirer satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) (*model.Reading, error)
}

// Loop is the top-level scheduler.
type Loop struct {
	fetcher   Fetcher
	store     storage.Storage
	est       *estimator.Estimator
	machine   *alerts.StateMachine
	notifiers []alerts.Notifier
	interval  time.Duration
	logger    *slog.Logger

	state atomic.Int32
}

// New wires a monitor loop.
func New(fetcher Fetcher, store storage.Storage, est *estimator.Estimator,
	machine *alerts.StateMachine, notifiers []alerts.Notifier,
	interval time.Duration, logger *slog.Logger) *Loop {
	return &Loop{
		fetcher:   fetcher,
		store:     store,
		est:       est,
		machine:   machine,
		notifiers: notifiers,
		interval:  interval,
		logger:    logger,
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run executes acquisition cycles until ctx is cancelled. The in-flight
// cycle completes before Run returns; inter-cycle waits are cut short
// by cancellation.
func (l *Loop) Run(ctx context.Context) {
	l.state.Store(int32(Running))
	defer l.state.Store(int32(Stopped))

	l.logger.Info("monitor started",
		"interval", l.interval,
		"threshold", l.machine.Threshold(),
		"max_alerts_per_episode", l.machine.MaxAlerts(),
	)

	for cycle := 1; ; cycle++ {
		l.runCycle(ctx, cycle)

		select {
		case <-ctx.Done():
			l.state.Store(int32(Stopping))
			l.logger.Info("monitor stopped", "cycles", cycle)
			return
		case <-time.After(l.interval):
		}
	}
}

// runCycle performs one acquisition cycle. No failure here is fatal: a
// failed acquisition skips the rest of the cycle, and storage or
// notifier failures are logged and ignored.
func (l *Loop) runCycle(ctx context.Context, cycle int) {
	reading, err := l.fetcher.Fetch(ctx)
	if err != nil {
		// The alert state machine is left untouched: a network failure
		// is not evidence the meter recovered.
		l.logger.Error("acquisition failed, skipping cycle", "cycle", cycle, "error", err)
		return
	}

	if err := l.store.AppendReading(ctx, reading); err != nil {
		l.logger.Error("persist reading", "cycle", cycle, "error", err)
	}

	history, err := l.store.RecentReadings(ctx, model.HistoryFilter{Limit: historyWindow})
	if err != nil {
		l.logger.Error("load history", "cycle", cycle, "error", err)
		history = []model.Reading{*reading}
	}

	daily := l.est.Daily(history)
	weekly := l.est.Weekly(history)
	days := estimator.DaysRemaining(reading.RemainingEnergy, daily)

	l.logger.Info("cycle complete",
		"cycle", cycle,
		"remaining_energy", reading.RemainingEnergy,
		"remaining_amount", reading.RemainingAmount,
		"daily_kwh", daily,
		"weekly_kwh", weekly,
		"days_remaining", days,
	)

	switch l.machine.Evaluate(reading) {
	case alerts.DecisionEmit:
		_, sent := l.machine.State()
		l.logger.Warn("low energy alert",
			"remaining_energy", reading.RemainingEnergy,
			"threshold", l.machine.Threshold(),
			"episode_alert", sent,
		)
		l.dispatch(ctx, reading, days)
	case alerts.DecisionNone:
		if below, sent := l.machine.State(); below && sent >= l.machine.MaxAlerts() {
			l.logger.Warn("low energy persists, alert suppressed",
				"remaining_energy", reading.RemainingEnergy,
				"alerts_sent", sent,
			)
		}
	}
}

// dispatch sends the alert through every notifier and records it unless
// delivery failed everywhere.
func (l *Loop) dispatch(ctx context.Context, reading *model.Reading, days float64) {
	alert := alerts.Alert{
		Reading:       *reading,
		Threshold:     l.machine.Threshold(),
		DaysRemaining: days,
		Message: fmt.Sprintf("low energy: %.2f kWh remaining (threshold %.1f)",
			reading.RemainingEnergy, l.machine.Threshold()),
	}

	delivered := len(l.notifiers) == 0
	for _, n := range l.notifiers {
		report, err := n.Send(ctx, alert)
		if err != nil {
			l.logger.Error("alert delivery failed", "notifier", n.Name(), "error", err)
			continue
		}
		if report.Partial() {
			l.logger.Warn("alert partially delivered", "notifier", n.Name(), "failed", report.Failed)
		}
		delivered = true
	}

	if delivered {
		if err := l.store.AppendAlert(ctx, reading, l.machine.Threshold(), alert.Message); err != nil {
			l.logger.Error("persist alert", "error", err)
		}
	}
}
