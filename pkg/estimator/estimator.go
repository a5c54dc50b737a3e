// Package estimator derives consumption rates from a history of meter
// readings. The meter exposes no native rate field, so rates are
// inferred from successive cumulative-consumption samples with a
// layered fallback: windowed delta, weekly-derived, then a fixed
// bracket table.
package estimator

import (
	"time"

	"github.com/wattmon/wattmon/pkg/model"
)

// DefaultAssumedIntervalMinutes is the polling interval assumed when a
// window's timestamps cannot be trusted.
const DefaultAssumedIntervalMinutes = 10

const (
	dailyWindowRows = 144 // ~24h of samples at a 10-minute interval

	minDaily, maxDaily   = 1.0, 50.0
	minWeekly, maxWeekly = 7.0, 350.0
	minDays, maxDays     = 0.1, 365.0

	// Below this a window-derived daily rate is considered noise.
	usableDailyFloor = 0.1
)

// Estimator computes daily and weekly consumption estimates. History
// slices are expected newest first, as returned by storage.
type Estimator struct {
	intervalMinutes float64
	bands           Bands
}

// New creates an estimator. intervalMinutes is the assumed polling
// interval; bands may be nil to use the defaults.
func New(intervalMinutes float64, bands Bands) *Estimator {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultAssumedIntervalMinutes
	}
	if len(bands) == 0 {
		bands = DefaultBands()
	}
	return &Estimator{intervalMinutes: intervalMinutes, bands: bands}
}

// Daily estimates kWh consumed per day. Fallback order: windowed delta
// over the newest samples, weekly delta divided by seven, then the
// bracket table keyed on the latest cumulative consumption.
func (e *Estimator) Daily(history []model.Reading) float64 {
	if d := e.windowedDaily(history); d > usableDailyFloor {
		return d
	}
	if w := e.windowedWeekly(history); w > 0 {
		return w / 7
	}

	var latest float64
	if len(history) > 0 {
		latest = history[0].TotalConsumption
	}
	return e.bands.DailyFor(latest)
}

// Weekly estimates kWh consumed per week, falling back to seven times
// the daily estimate when the seven-day window is unusable.
func (e *Estimator) Weekly(history []model.Reading) float64 {
	if w := e.windowedWeekly(history); w > 0 {
		return w
	}
	return e.Daily(history) * 7
}

// DaysRemaining converts a remaining-energy figure and daily rate into
// a display estimate. An empty meter yields 0 outright.
func DaysRemaining(remainingEnergy, daily float64) float64 {
	if remainingEnergy <= 0 {
		return 0
	}
	if daily <= 0 {
		return maxDays
	}
	return clamp(remainingEnergy/daily, minDays, maxDays)
}

// windowedDaily derives a daily rate from the newest window of samples.
// Returns 0 when the window is unusable (too few rows, or cumulative
// consumption did not increase).
func (e *Estimator) windowedDaily(history []model.Reading) float64 {
	n := len(history)
	if n < 2 {
		return 0
	}
	if n > dailyWindowRows {
		n = dailyWindowRows
	}
	newest, oldest := history[0], history[n-1]

	delta := newest.TotalConsumption - oldest.TotalConsumption
	if delta <= 0 {
		return 0
	}

	// Prefer true elapsed time between the window edges; assume the
	// fixed interval only when the span is degenerate.
	hours := newest.ObservedAt.Sub(oldest.ObservedAt).Hours()
	if newest.ObservedAt.IsZero() || oldest.ObservedAt.IsZero() || hours < 1.0/60 {
		hours = float64(n) * e.intervalMinutes / 60
	}
	if hours <= 0 {
		return 0
	}

	return clamp(delta/hours*24, minDaily, maxDaily)
}

// windowedWeekly derives weekly consumption from samples observed in
// the seven days before the newest sample. Returns 0 when unusable.
func (e *Estimator) windowedWeekly(history []model.Reading) float64 {
	if len(history) < 2 {
		return 0
	}

	ref := history[0].ObservedAt
	if ref.IsZero() {
		ref = time.Now()
	}
	cutoff := ref.Add(-7 * 24 * time.Hour)

	var window []model.Reading
	for _, r := range history {
		if !r.ObservedAt.Before(cutoff) {
			window = append(window, r)
		}
	}
	if len(window) < 2 {
		return 0
	}

	delta := window[0].TotalConsumption - window[len(window)-1].TotalConsumption
	if delta <= 0 {
		return 0
	}
	return clamp(delta, minWeekly, maxWeekly)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
