package domain

import (
	"context"
	"encoding/json"
)

// Activity is a canonical workout/exercise session. Identity is the
// tuple (UserID, Source, SourceID); re-ingesting the same provider
// activity is idempotent.
type Activity struct {
	UserID    string
	Source    Provider
	SourceID  string
	Name      string
	SportType string
	StartTime string // provider-local timestamp, passed through verbatim
	DurationS *float64
	DistanceM *float64
	AvgHR     *int64
	MaxHR     *int64
	TRIMP     *float64
	TSSEst    *float64
	Calories  *float64
	Raw       json.RawMessage
}

// ActivityRepository is the port for canonical activity persistence.
type ActivityRepository interface {
	// UpsertActivity inserts or replaces the row keyed on
	// (user_id, source, source_id).
	UpsertActivity(ctx context.Context, a Activity) error
}
