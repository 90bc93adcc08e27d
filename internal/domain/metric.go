package domain

import "context"

// DailyMetric is the canonical per-day health record, independent of any
// single provider's field names. Optional fields are nil when the source
// payload did not supply them.
//
// At most one row exists per (UserID, MetricDate). An upsert overwrites
// the entire row with the caller's values; fields the current provider
// did not supply are not preserved from earlier writes.
type DailyMetric struct {
	UserID            string
	MetricDate        string // YYYY-MM-DD
	EnergyBurnedKcal  *float64
	Steps             *int64
	SleepMinutesTotal *int64
	SleepEfficiency   *float64
	RestingHR         *int64
	HRVRMSSD          *float64
	StressScore       *float64
	TrainingLoad      *float64
	WeightKg          *float64
	BodyFatPct        *float64
}

// MetricRepository is the port for canonical daily-metric persistence.
type MetricRepository interface {
	// UpsertDailyMetric inserts or replaces the row keyed on
	// (user_id, metric_date). Whole-row overwrite semantics.
	UpsertDailyMetric(ctx context.Context, m DailyMetric) error
}
