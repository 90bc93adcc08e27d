package postgres

import (
	"context"
	"fmt"
	"strings"

	"wearsync/internal/domain"
)

// AppendRawEvents inserts the batch in a single statement. The table is
// append-only; there is no conflict key.
func (d *DB) AppendRawEvents(ctx context.Context, events []domain.RawEvent) error {
	if len(events) == 0 {
		return nil
	}

	var (
		placeholders = make([]string, 0, len(events))
		args         = make([]any, 0, len(events)*6)
	)
	for i, e := range events {
		base := i * 6
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))

		var payload any
		if len(e.Payload) > 0 {
			payload = string(e.Payload)
		}
		args = append(args, e.ID, e.UserID, string(e.Provider), e.EventType, payload, e.ReceivedAt.UTC())
	}

	query := "INSERT INTO raw_events (id, user_id, provider, event_type, payload, received_at) VALUES " +
		strings.Join(placeholders, ", ") + ";"
	_, err := d.sql.ExecContext(ctx, query, args...)
	return err
}
