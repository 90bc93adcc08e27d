// Package memory implements in-memory repositories for development and
// testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wearsync/internal/domain"
)

// DB implements every domain repository in memory.
type DB struct {
	mu          sync.Mutex
	connections map[string]*domain.Connection // userID|provider
	metrics     map[string]domain.DailyMetric // userID|metricDate
	activities  map[string]domain.Activity    // userID|source|sourceID
	rawEvents   []domain.RawEvent
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		connections: make(map[string]*domain.Connection),
		metrics:     make(map[string]domain.DailyMetric),
		activities:  make(map[string]domain.Activity),
	}
}

// Ensure interfaces are met.
var _ domain.ConnectionRepository = (*DB)(nil)
var _ domain.MetricRepository = (*DB)(nil)
var _ domain.ActivityRepository = (*DB)(nil)
var _ domain.RawEventRepository = (*DB)(nil)

// --- ConnectionRepository ---

func connKey(userID string, name domain.Provider) string {
	return userID + "|" + string(name)
}

// UpsertConnection inserts or replaces the connection for
// (userID, provider). latest_sync_at and created_at survive replacement,
// matching the SQL adapter.
func (db *DB) UpsertConnection(ctx context.Context, conn *domain.Connection) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *conn
	if existing, ok := db.connections[connKey(conn.UserID, conn.Provider)]; ok {
		cp.LatestSyncAt = existing.LatestSyncAt
		cp.CreatedAt = existing.CreatedAt
	}
	cp.UpdatedAt = time.Now().UTC()
	db.connections[connKey(conn.UserID, conn.Provider)] = &cp
	return nil
}

// GetConnection returns a copy of the connection, or nil when absent.
func (db *DB) GetConnection(ctx context.Context, userID string, name domain.Provider) (*domain.Connection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	conn, ok := db.connections[connKey(userID, name)]
	if !ok {
		return nil, nil
	}
	cp := *conn
	return &cp, nil
}

// ListConnections returns the user's connections ordered by provider.
func (db *DB) ListConnections(ctx context.Context, userID string) ([]domain.Connection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Connection
	for _, conn := range db.connections {
		if conn.UserID == userID {
			out = append(out, *conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

// FindUserByExternalID resolves the internal user for a provider-side
// account id. Returns "" when no connection is linked.
func (db *DB) FindUserByExternalID(ctx context.Context, name domain.Provider, externalID string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, conn := range db.connections {
		if conn.Provider == name && conn.ExternalUserID == externalID {
			return conn.UserID, nil
		}
	}
	return "", nil
}

// SetConnectionStatus writes an explicit status transition.
func (db *DB) SetConnectionStatus(ctx context.Context, userID string, name domain.Provider, status domain.Status) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if conn, ok := db.connections[connKey(userID, name)]; ok {
		conn.Status = status
		conn.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// MarkSynced records a completed sync.
func (db *DB) MarkSynced(ctx context.Context, userID string, name domain.Provider, syncedAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if conn, ok := db.connections[connKey(userID, name)]; ok {
		conn.Status = domain.StatusConnected
		t := syncedAt.UTC()
		conn.LatestSyncAt = &t
		conn.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// --- MetricRepository ---

// UpsertDailyMetric replaces the whole row for (userID, metricDate).
func (db *DB) UpsertDailyMetric(ctx context.Context, m domain.DailyMetric) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.metrics[m.UserID+"|"+m.MetricDate] = m
	return nil
}

// --- ActivityRepository ---

// UpsertActivity replaces the row for (userID, source, sourceID).
func (db *DB) UpsertActivity(ctx context.Context, a domain.Activity) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.activities[a.UserID+"|"+string(a.Source)+"|"+a.SourceID] = a
	return nil
}

// --- RawEventRepository ---

// AppendRawEvents appends the batch to the log.
func (db *DB) AppendRawEvents(ctx context.Context, events []domain.RawEvent) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.rawEvents = append(db.rawEvents, events...)
	return nil
}

// --- inspection helpers ---

// DailyMetrics returns a snapshot of all stored metrics, ordered by
// user then date.
func (db *DB) DailyMetrics() []domain.DailyMetric {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.DailyMetric, 0, len(db.metrics))
	for _, m := range db.metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].MetricDate < out[j].MetricDate
	})
	return out
}

// Activities returns a snapshot of all stored activities, ordered by
// source id.
func (db *DB) Activities() []domain.Activity {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Activity, 0, len(db.activities))
	for _, a := range db.activities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

// RawEvents returns a snapshot of the raw-event log in append order.
func (db *DB) RawEvents() []domain.RawEvent {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.RawEvent, len(db.rawEvents))
	copy(out, db.rawEvents)
	return out
}
