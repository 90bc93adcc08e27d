// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements the domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS connections (
			user_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			external_user_id TEXT NOT NULL DEFAULT '',
			access_token BYTEA,
			refresh_token BYTEA,
			expires_at TIMESTAMPTZ,
			scopes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'disconnected',
			latest_sync_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, provider)
		);`,
		"CREATE INDEX IF NOT EXISTS idx_connections_external ON connections(provider, external_user_id);",
		`CREATE TABLE IF NOT EXISTS daily_metrics (
			user_id TEXT NOT NULL,
			metric_date TEXT NOT NULL,
			energy_burned_kcal DOUBLE PRECISION,
			steps BIGINT,
			sleep_minutes_total BIGINT,
			sleep_efficiency DOUBLE PRECISION,
			resting_hr BIGINT,
			hrv_rmssd DOUBLE PRECISION,
			stress_score DOUBLE PRECISION,
			training_load DOUBLE PRECISION,
			weight_kg DOUBLE PRECISION,
			body_fat_pct DOUBLE PRECISION,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, metric_date)
		);`,
		`CREATE TABLE IF NOT EXISTS activities (
			user_id TEXT NOT NULL,
			source TEXT NOT NULL,
			source_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			sport_type TEXT NOT NULL DEFAULT '',
			start_time TEXT NOT NULL DEFAULT '',
			duration_s DOUBLE PRECISION,
			distance_m DOUBLE PRECISION,
			avg_hr BIGINT,
			max_hr BIGINT,
			trimp DOUBLE PRECISION,
			tss_est DOUBLE PRECISION,
			calories DOUBLE PRECISION,
			raw JSONB,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, source, source_id)
		);`,
		`CREATE TABLE IF NOT EXISTS raw_events (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			event_type TEXT NOT NULL DEFAULT '',
			payload JSONB,
			received_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_raw_events_user ON raw_events(user_id, provider, received_at);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
