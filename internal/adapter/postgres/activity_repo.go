package postgres

import (
	"context"
	"time"

	"wearsync/internal/domain"
)

// UpsertActivity inserts or replaces the row keyed on
// (user_id, source, source_id).
func (d *DB) UpsertActivity(ctx context.Context, a domain.Activity) error {
	var raw any
	if len(a.Raw) > 0 {
		raw = string(a.Raw)
	}

	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO activities (user_id, source, source_id, name, sport_type, start_time, duration_s, distance_m, avg_hr, max_hr, trimp, tss_est, calories, raw, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id, source, source_id) DO UPDATE SET
			name = EXCLUDED.name,
			sport_type = EXCLUDED.sport_type,
			start_time = EXCLUDED.start_time,
			duration_s = EXCLUDED.duration_s,
			distance_m = EXCLUDED.distance_m,
			avg_hr = EXCLUDED.avg_hr,
			max_hr = EXCLUDED.max_hr,
			trimp = EXCLUDED.trimp,
			tss_est = EXCLUDED.tss_est,
			calories = EXCLUDED.calories,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at;`,
		a.UserID, string(a.Source), a.SourceID, a.Name, a.SportType,
		a.StartTime, a.DurationS, a.DistanceM, a.AvgHR, a.MaxHR,
		a.TRIMP, a.TSSEst, a.Calories, raw, time.Now().UTC(),
	)
	return err
}
