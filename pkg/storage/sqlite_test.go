package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wattmon/wattmon/pkg/model"
	"github.com/wattmon/wattmon/pkg/storage"
)

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLite_AppendAndReadBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := &model.Reading{
		RemainingEnergy:  123.45,
		RemainingAmount:  67.89,
		TotalConsumption: 456.78,
		Price:            0.55,
		MeterStatus:      "normal",
		SourceUpdateTime: "2025-03-14 09:25:00",
	}
	require.NoError(t, store.AppendReading(ctx, r))

	// ID and timestamp are assigned when absent.
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.ObservedAt.IsZero())

	got, err := store.RecentReadings(ctx, model.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, r.ID, got[0].ID)
	assert.InDelta(t, 123.45, got[0].RemainingEnergy, 0.001)
	assert.InDelta(t, 67.89, got[0].RemainingAmount, 0.001)
	assert.Equal(t, "normal", got[0].MeterStatus)
	assert.Equal(t, "2025-03-14 09:25:00", got[0].SourceUpdateTime)
}

func TestSQLite_RecentReadingsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendReading(ctx, &model.Reading{
			RemainingEnergy: float64(100 - i),
			ObservedAt:      base.Add(time.Duration(i) * 10 * time.Minute),
		}))
	}

	got, err := store.RecentReadings(ctx, model.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.InDelta(t, 96.0, got[0].RemainingEnergy, 0.001)
	assert.InDelta(t, 100.0, got[4].RemainingEnergy, 0.001)
}

func TestSQLite_RecentReadingsLimitAndSince(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.AppendReading(ctx, &model.Reading{
			RemainingEnergy: float64(i),
			ObservedAt:      base.Add(time.Duration(i) * time.Hour),
		}))
	}

	limited, err := store.RecentReadings(ctx, model.HistoryFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, limited, 3)
	assert.InDelta(t, 9.0, limited[0].RemainingEnergy, 0.001)

	since, err := store.RecentReadings(ctx, model.HistoryFilter{Since: base.Add(7 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, since, 3)
}

func TestSQLite_EmptyHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.RecentReadings(ctx, model.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	alerts, err := store.RecentAlerts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestSQLite_Alerts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := &model.Reading{RemainingEnergy: 42.5, SourceUpdateTime: "2025-03-14 09:25:00"}
	require.NoError(t, store.AppendAlert(ctx, r, 100, "low energy: 42.50 kWh remaining (threshold 100.0)"))
	require.NoError(t, store.AppendAlert(ctx, r, 100, ""))

	got, err := store.RecentAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for _, a := range got {
		assert.InDelta(t, 42.5, a.RemainingEnergy, 0.001)
		assert.InDelta(t, 100.0, a.Threshold, 0.001)
		assert.NotEmpty(t, a.Message) // empty message gets a default
		assert.False(t, a.AlertedAt.IsZero())
	}
}

func TestSQLite_Stats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.ReadingCount)
	assert.Zero(t, empty.AlertCount)

	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	energies := []float64{100, 80, 60}
	for i, e := range energies {
		require.NoError(t, store.AppendReading(ctx, &model.Reading{
			RemainingEnergy:  e,
			RemainingAmount:  e / 2,
			TotalConsumption: 300 + float64(i)*10,
			ObservedAt:       base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.AppendAlert(ctx, &model.Reading{RemainingEnergy: 60}, 100, "m"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.ReadingCount)
	assert.Equal(t, int64(1), stats.AlertCount)
	assert.InDelta(t, 60.0, stats.MinEnergy, 0.001)
	assert.InDelta(t, 100.0, stats.MaxEnergy, 0.001)
	assert.InDelta(t, 80.0, stats.AvgEnergy, 0.001)
	assert.InDelta(t, 40.0, stats.AvgAmount, 0.001)
	assert.InDelta(t, 320.0, stats.LatestConsumption, 0.001)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	store, err := storage.NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.AppendReading(ctx, &model.Reading{RemainingEnergy: 55}))
	require.NoError(t, store.Close())

	reopened, err := storage.NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.RecentReadings(ctx, model.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 55.0, got[0].RemainingEnergy, 0.001)
}
