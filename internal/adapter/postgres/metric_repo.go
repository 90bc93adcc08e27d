package postgres

import (
	"context"
	"time"

	"wearsync/internal/domain"
)

// UpsertDailyMetric inserts or replaces the row keyed on
// (user_id, metric_date). Every metric column is overwritten with this
// call's values; fields the current provider did not supply become
// NULL.
func (d *DB) UpsertDailyMetric(ctx context.Context, m domain.DailyMetric) error {
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO daily_metrics (user_id, metric_date, energy_burned_kcal, steps, sleep_minutes_total, sleep_efficiency, resting_hr, hrv_rmssd, stress_score, training_load, weight_kg, body_fat_pct, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, metric_date) DO UPDATE SET
			energy_burned_kcal = EXCLUDED.energy_burned_kcal,
			steps = EXCLUDED.steps,
			sleep_minutes_total = EXCLUDED.sleep_minutes_total,
			sleep_efficiency = EXCLUDED.sleep_efficiency,
			resting_hr = EXCLUDED.resting_hr,
			hrv_rmssd = EXCLUDED.hrv_rmssd,
			stress_score = EXCLUDED.stress_score,
			training_load = EXCLUDED.training_load,
			weight_kg = EXCLUDED.weight_kg,
			body_fat_pct = EXCLUDED.body_fat_pct,
			updated_at = EXCLUDED.updated_at;`,
		m.UserID, m.MetricDate, m.EnergyBurnedKcal, m.Steps,
		m.SleepMinutesTotal, m.SleepEfficiency, m.RestingHR, m.HRVRMSSD,
		m.StressScore, m.TrainingLoad, m.WeightKg, m.BodyFatPct,
		time.Now().UTC(),
	)
	return err
}
