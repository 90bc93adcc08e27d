package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RawEvent is an append-only copy of a provider payload, retained for
// reprocessing and audit independent of canonical-table success. Rows
// are never updated or deleted.
type RawEvent struct {
	ID         string
	UserID     string
	Provider   Provider
	EventType  string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// RawEventRepository is the port for the append-only raw-event log.
type RawEventRepository interface {
	AppendRawEvents(ctx context.Context, events []RawEvent) error
}
