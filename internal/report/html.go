// Package report renders the history into static HTML pages and a
// console summary.
package report

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wattmon/wattmon/pkg/estimator"
	"github.com/wattmon/wattmon/pkg/model"
	"github.com/wattmon/wattmon/pkg/storage"
)

const maxReportRows = 1000

// Writer renders report pages from the stored history.
type Writer struct {
	store     storage.Storage
	est       *estimator.Estimator
	threshold float64
	logger    *slog.Logger
}

// NewWriter creates a report writer.
func NewWriter(store storage.Storage, est *estimator.Estimator, threshold float64, logger *slog.Logger) *Writer {
	return &Writer{store: store, est: est, threshold: threshold, logger: logger}
}

// Data is everything the report pages and console summary show.
type Data struct {
	GeneratedAt   string
	Threshold     float64
	Latest        *model.Reading
	LowEnergy     bool
	DailyKWh      float64
	WeeklyKWh     float64
	DaysRemaining float64
	Stats         *model.StatsSummary
	Readings      []model.Reading
	Alerts        []model.AlertRecord
}

// WriteAll renders index.html, history.html and alerts.html into dir.
func (w *Writer) WriteAll(ctx context.Context, dir string) error {
	data, err := w.collect(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	pages := map[string]*template.Template{
		"index.html":   indexTemplate,
		"history.html": historyTemplate,
		"alerts.html":  alertsTemplate,
	}
	for name, tmpl := range pages {
		path := filepath.Join(dir, name)
		if err := w.writePage(path, tmpl, data); err != nil {
			return err
		}
		w.logger.Info("report page written", "path", path)
	}
	return nil
}

// Summary aggregates the history for console output.
func (w *Writer) Summary(ctx context.Context) (*Data, error) {
	return w.collect(ctx)
}

func (w *Writer) collect(ctx context.Context) (*Data, error) {
	readings, err := w.store.RecentReadings(ctx, model.HistoryFilter{Limit: maxReportRows})
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}
	alerts, err := w.store.RecentAlerts(ctx, maxReportRows)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	stats, err := w.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}

	data := &Data{
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Threshold:   w.threshold,
		Stats:       stats,
		Readings:    readings,
		Alerts:      alerts,
	}
	if len(readings) > 0 {
		latest := readings[0]
		data.Latest = &latest
		data.LowEnergy = latest.RemainingEnergy <= w.threshold
		data.DailyKWh = w.est.Daily(readings)
		data.WeeklyKWh = w.est.Weekly(readings)
		data.DaysRemaining = estimator.DaysRemaining(latest.RemainingEnergy, data.DailyKWh)
	}
	return data, nil
}

func (w *Writer) writePage(path string, tmpl *template.Template, data *Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
