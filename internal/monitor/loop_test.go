package monitor_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wattmon/wattmon/internal/monitor"
	"github.com/wattmon/wattmon/pkg/alerts"
	"github.com/wattmon/wattmon/pkg/estimator"
	"github.com/wattmon/wattmon/pkg/model"
	"github.com/wattmon/wattmon/pkg/storage"
)

// step is one scripted Fetch outcome: a remaining-energy value or a
// simulated network failure.
type step struct {
	energy float64
	fail   bool
}

// scriptedFetcher plays back a fixed sequence of outcomes, then cancels
// the loop's context so Run returns after the script is exhausted.
type scriptedFetcher struct {
	script []step
	pos    int
	cancel context.CancelFunc
}

func (f *scriptedFetcher) Fetch(_ context.Context) (*model.Reading, error) {
	if f.pos >= len(f.script) {
		f.cancel()
		return nil, fmt.Errorf("script exhausted")
	}
	s := f.script[f.pos]
	f.pos++
	if s.fail {
		return nil, fmt.Errorf("connection refused")
	}
	return &model.Reading{
		RemainingEnergy:  s.energy,
		TotalConsumption: 300,
	}, nil
}

// captureNotifier records every alert it is asked to deliver.
type captureNotifier struct {
	alerts []alerts.Alert
	err    error
}

func (n *captureNotifier) Name() string { return "capture" }

func (n *captureNotifier) Send(_ context.Context, a alerts.Alert) (alerts.DeliveryReport, error) {
	n.alerts = append(n.alerts, a)
	if n.err != nil {
		return alerts.DeliveryReport{Failed: []string{"capture"}}, n.err
	}
	return alerts.DeliveryReport{Delivered: []string{"capture"}}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "monitor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// runScript drives a loop over the scripted outcomes and returns once
// the script is exhausted.
func runScript(t *testing.T, script []step, notifier alerts.Notifier, store storage.Storage) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &scriptedFetcher{script: script, cancel: cancel}
	machine := alerts.NewStateMachine(100, 3)
	var notifiers []alerts.Notifier
	if notifier != nil {
		notifiers = []alerts.Notifier{notifier}
	}
	loop := monitor.New(fetcher, store, estimator.New(10, nil), machine, notifiers, time.Millisecond, testLogger())

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("loop did not stop after the script ran out")
	}
	assert.Equal(t, monitor.Stopped, loop.State())
}

func TestLoop_AlertsCappedPerEpisode(t *testing.T) {
	store := newTestStore(t)
	notifier := &captureNotifier{}

	// Six below-threshold readings: only the first three may alert.
	runScript(t, []step{
		{energy: 150}, {energy: 90}, {energy: 80}, {energy: 70},
		{energy: 60}, {energy: 55}, {energy: 50},
	}, notifier, store)

	require.Len(t, notifier.alerts, 3)
	assert.InDelta(t, 90.0, notifier.alerts[0].Reading.RemainingEnergy, 0.001)
	assert.InDelta(t, 70.0, notifier.alerts[2].Reading.RemainingEnergy, 0.001)

	persisted, err := store.RecentAlerts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, persisted, 3)

	readings, err := store.RecentReadings(context.Background(), model.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, readings, 7)
}

func TestLoop_RecoveryStartsNewEpisode(t *testing.T) {
	store := newTestStore(t)
	notifier := &captureNotifier{}

	runScript(t, []step{
		{energy: 90}, {energy: 80}, {energy: 70}, {energy: 60}, // cap reached
		{energy: 150}, // recovery
		{energy: 95},  // new episode alerts again
	}, notifier, store)

	require.Len(t, notifier.alerts, 4)
	assert.InDelta(t, 95.0, notifier.alerts[3].Reading.RemainingEnergy, 0.001)
}

func TestLoop_FetchFailureDoesNotResetEpisode(t *testing.T) {
	store := newTestStore(t)
	notifier := &captureNotifier{}

	// The cap is reached, a fetch fails, and the next low reading must
	// stay suppressed: a network failure is not a recovery.
	runScript(t, []step{
		{energy: 90}, {energy: 80}, {energy: 70},
		{fail: true},
		{energy: 60},
	}, notifier, store)

	assert.Len(t, notifier.alerts, 3)

	// Failed cycles persist nothing.
	readings, err := store.RecentReadings(context.Background(), model.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, readings, 4)
}

func TestLoop_UndeliveredAlertNotPersisted(t *testing.T) {
	store := newTestStore(t)
	notifier := &captureNotifier{err: fmt.Errorf("smtp down")}

	runScript(t, []step{{energy: 90}}, notifier, store)

	// The notifier was asked, delivery failed everywhere, so no alert
	// row is recorded.
	assert.Len(t, notifier.alerts, 1)
	persisted, err := store.RecentAlerts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestLoop_NoNotifiersStillRecordsAlerts(t *testing.T) {
	store := newTestStore(t)

	runScript(t, []step{{energy: 90}}, nil, store)

	persisted, err := store.RecentAlerts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
	assert.Contains(t, persisted[0].Message, "90.00 kWh")
}

func TestLoop_CancellationCutsIdleWaitShort(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := &scriptedFetcher{script: []step{{energy: 150}}, cancel: func() {}}
	machine := alerts.NewStateMachine(100, 3)
	// An hour-long interval: only cancellation can end the run quickly.
	loop := monitor.New(fetcher, store, estimator.New(10, nil), machine, nil, time.Hour, testLogger())

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, monitor.Running, loop.State())

	start := time.Now()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, monitor.Stopped, loop.State())
}
