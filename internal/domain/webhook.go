package domain

import (
	"encoding/json"
	"time"
)

// WebhookPayload is the normalized envelope produced after a webhook
// body has been authenticated and parsed. It is transient; ownership
// passes to the caller and it is not persisted as-is.
type WebhookPayload struct {
	Provider       Provider
	Event          string
	ExternalUserID string
	ReceivedAt     time.Time
	Data           json.RawMessage
}
