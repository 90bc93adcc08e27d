package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"wearsync/internal/domain"
)

// UpsertConnection inserts or updates the row keyed on
// (user_id, provider). latest_sync_at and created_at survive updates;
// everything else is replaced.
func (d *DB) UpsertConnection(ctx context.Context, conn *domain.Connection) error {
	var expiresAt sql.NullTime
	if !conn.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: conn.ExpiresAt.UTC(), Valid: true}
	}

	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO connections (user_id, provider, external_user_id, access_token, refresh_token, expires_at, scopes, status, latest_sync_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			external_user_id = EXCLUDED.external_user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			scopes = EXCLUDED.scopes,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at;`,
		conn.UserID, string(conn.Provider), conn.ExternalUserID,
		conn.AccessToken, conn.RefreshToken, expiresAt,
		strings.Join(conn.Scopes, " "), conn.Status.String(),
		nullTimePtr(conn.LatestSyncAt), time.Now().UTC(),
	)
	return err
}

// GetConnection returns the row for (user_id, provider), or nil when
// absent.
func (d *DB) GetConnection(ctx context.Context, userID string, name domain.Provider) (*domain.Connection, error) {
	row := d.sql.QueryRowContext(ctx, `
		SELECT user_id, provider, external_user_id, access_token, refresh_token, expires_at, scopes, status, latest_sync_at, created_at, updated_at
		FROM connections WHERE user_id = $1 AND provider = $2;`,
		userID, string(name),
	)
	conn, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ListConnections returns every connection row for the user.
func (d *DB) ListConnections(ctx context.Context, userID string) ([]domain.Connection, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT user_id, provider, external_user_id, access_token, refresh_token, expires_at, scopes, status, latest_sync_at, created_at, updated_at
		FROM connections WHERE user_id = $1 ORDER BY provider;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *conn)
	}
	return out, rows.Err()
}

// FindUserByExternalID resolves the internal user for a provider-side
// account id. Returns "" when no connection is linked.
func (d *DB) FindUserByExternalID(ctx context.Context, name domain.Provider, externalID string) (string, error) {
	var userID string
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id FROM connections WHERE provider = $1 AND external_user_id = $2 LIMIT 1;",
		string(name), externalID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// SetConnectionStatus writes an explicit status transition.
func (d *DB) SetConnectionStatus(ctx context.Context, userID string, name domain.Provider, status domain.Status) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE connections SET status = $1, updated_at = $2 WHERE user_id = $3 AND provider = $4;",
		status.String(), time.Now().UTC(), userID, string(name),
	)
	return err
}

// MarkSynced records a completed sync.
func (d *DB) MarkSynced(ctx context.Context, userID string, name domain.Provider, syncedAt time.Time) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE connections SET status = $1, latest_sync_at = $2, updated_at = $3 WHERE user_id = $4 AND provider = $5;",
		domain.StatusConnected.String(), syncedAt.UTC(), time.Now().UTC(), userID, string(name),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*domain.Connection, error) {
	var (
		conn       domain.Connection
		providerS  string
		statusS    string
		scopesS    string
		expiresAt  sql.NullTime
		latestSync sql.NullTime
	)
	err := row.Scan(&conn.UserID, &providerS, &conn.ExternalUserID,
		&conn.AccessToken, &conn.RefreshToken, &expiresAt, &scopesS,
		&statusS, &latestSync, &conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		return nil, err
	}

	conn.Provider = domain.Provider(providerS)
	status, err := domain.ParseStatus(statusS)
	if err != nil {
		return nil, err
	}
	conn.Status = status
	conn.Scopes = strings.Fields(scopesS)
	if expiresAt.Valid {
		conn.ExpiresAt = expiresAt.Time
	}
	if latestSync.Valid {
		t := latestSync.Time
		conn.LatestSyncAt = &t
	}
	return &conn, nil
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
