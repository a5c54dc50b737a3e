package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wattmon/wattmon/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) AppendReading(ctx context.Context, r *model.Reading) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (id, remaining_energy, remaining_amount, total_consumption, price, meter_status, source_update_time, observed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RemainingEnergy, r.RemainingAmount, r.TotalConsumption,
		r.Price, r.MeterStatus, r.SourceUpdateTime, r.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (s *SQLite) RecentReadings(ctx context.Context, filter model.HistoryFilter) ([]model.Reading, error) {
	query := `SELECT id, remaining_energy, remaining_amount, total_consumption, price, meter_status, source_update_time, observed_at
		FROM readings`
	var conditions []string
	var args []any
	if !filter.Since.IsZero() {
		conditions = append(conditions, "observed_at >= ?")
		args = append(args, filter.Since)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY observed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []model.Reading
	for rows.Next() {
		var r model.Reading
		if err := rows.Scan(&r.ID, &r.RemainingEnergy, &r.RemainingAmount, &r.TotalConsumption,
			&r.Price, &r.MeterStatus, &r.SourceUpdateTime, &r.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *SQLite) AppendAlert(ctx context.Context, r *model.Reading, threshold float64, message string) error {
	if message == "" {
		message = fmt.Sprintf("low energy: %.2f kWh remaining", r.RemainingEnergy)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, remaining_energy, threshold, message, source_update_time, alerted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), r.RemainingEnergy, threshold, message,
		r.SourceUpdateTime, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *SQLite) RecentAlerts(ctx context.Context, limit int) ([]model.AlertRecord, error) {
	query := `SELECT id, remaining_energy, threshold, message, source_update_time, alerted_at
		FROM alerts ORDER BY alerted_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.AlertRecord
	for rows.Next() {
		var a model.AlertRecord
		if err := rows.Scan(&a.ID, &a.RemainingEnergy, &a.Threshold, &a.Message,
			&a.SourceUpdateTime, &a.AlertedAt); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *SQLite) Stats(ctx context.Context) (*model.StatsSummary, error) {
	summary := &model.StatsSummary{}

	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(MIN(remaining_energy), 0),
		COALESCE(MAX(remaining_energy), 0),
		COALESCE(AVG(remaining_energy), 0),
		COALESCE(MIN(remaining_amount), 0),
		COALESCE(MAX(remaining_amount), 0),
		COALESCE(AVG(remaining_amount), 0)
	FROM readings`).Scan(
		&summary.ReadingCount,
		&summary.MinEnergy, &summary.MaxEnergy, &summary.AvgEnergy,
		&summary.MinAmount, &summary.MaxAmount, &summary.AvgAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate readings: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(total_consumption, 0) FROM readings ORDER BY observed_at DESC LIMIT 1`,
	).Scan(&summary.LatestConsumption)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("latest consumption: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&summary.AlertCount); err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}

	return summary, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
