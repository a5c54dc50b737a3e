package storage

import (
	"context"

	"github.com/wattmon/wattmon/pkg/model"
)

// Storage defines the persistence layer for meter readings and alerts.
// History is append-only; the monitor never mutates or deletes rows.
type Storage interface {
	// AppendReading persists a single reading.
	AppendReading(ctx context.Context, r *model.Reading) error

	// RecentReadings returns readings matching the filter, newest first.
	RecentReadings(ctx context.Context, filter model.HistoryFilter) ([]model.Reading, error)

	// AppendAlert persists a low-energy alert derived from a reading.
	AppendAlert(ctx context.Context, r *model.Reading, threshold float64, message string) error

	// RecentAlerts returns up to limit alerts, newest first.
	RecentAlerts(ctx context.Context, limit int) ([]model.AlertRecord, error)

	// Stats aggregates the full history.
	Stats(ctx context.Context) (*model.StatsSummary, error)

	// Close releases resources.
	Close() error
}
