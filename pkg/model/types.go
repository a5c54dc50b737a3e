package model

import "time"

// Reading represents a single observation captured from the remote meter.
// Readings are constructed once by the acquirer and never mutated.
type Reading struct {
	ID               string    `json:"id" db:"id"`
	RemainingEnergy  float64   `json:"remaining_energy" db:"remaining_energy"`
	RemainingAmount  float64   `json:"remaining_amount" db:"remaining_amount"`
	TotalConsumption float64   `json:"total_consumption" db:"total_consumption"`
	Price            float64   `json:"price" db:"price"`
	MeterStatus      string    `json:"meter_status,omitempty" db:"meter_status"`
	SourceUpdateTime string    `json:"source_update_time,omitempty" db:"source_update_time"`
	ObservedAt       time.Time `json:"observed_at" db:"observed_at"`
}

// AlertRecord is a persisted low-energy alert.
type AlertRecord struct {
	ID               string    `json:"id" db:"id"`
	RemainingEnergy  float64   `json:"remaining_energy" db:"remaining_energy"`
	Threshold        float64   `json:"threshold" db:"threshold"`
	Message          string    `json:"message" db:"message"`
	SourceUpdateTime string    `json:"source_update_time,omitempty" db:"source_update_time"`
	AlertedAt        time.Time `json:"alerted_at" db:"alerted_at"`
}

// HistoryFilter controls which readings a history query returns.
// A zero filter returns the full history, newest first.
type HistoryFilter struct {
	Limit int       `json:"limit,omitempty"`
	Since time.Time `json:"since,omitempty"`
}

// StatsSummary holds aggregated history statistics.
type StatsSummary struct {
	ReadingCount      int64   `json:"reading_count"`
	AlertCount        int64   `json:"alert_count"`
	MinEnergy         float64 `json:"min_energy"`
	MaxEnergy         float64 `json:"max_energy"`
	AvgEnergy         float64 `json:"avg_energy"`
	MinAmount         float64 `json:"min_amount"`
	MaxAmount         float64 `json:"max_amount"`
	AvgAmount         float64 `json:"avg_amount"`
	LatestConsumption float64 `json:"latest_consumption"`
}
