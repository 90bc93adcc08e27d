package garmin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

// SignatureHeader carries the hex HMAC-SHA256 over the raw body.
const SignatureHeader = "x-garmin-signature-sha256"

// webhookEnvelope is one element of the array Garmin posts.
type webhookEnvelope struct {
	EventType   string          `json:"eventType"`
	CreatedTime string          `json:"createdTime"`
	Data        json.RawMessage `json:"data"`
}

// VerifyWebhook checks the hex HMAC-SHA256 signature over the raw body.
// Returns false when the webhook secret or the signature is absent.
func (c *Client) VerifyWebhook(signature string, body []byte) bool {
	secret := os.Getenv(envWebhookSecret)
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ParseWebhook authenticates a Garmin delivery and returns the first
// event of the batch as a normalized envelope. The body is never
// decoded before the signature check passes.
func (c *Client) ParseWebhook(header http.Header, body []byte) (domain.WebhookPayload, error) {
	if !c.VerifyWebhook(header.Get(SignatureHeader), body) {
		return domain.WebhookPayload{}, provider.ErrBadSignature
	}

	var batch []webhookEnvelope
	if err := json.Unmarshal(body, &batch); err != nil {
		return domain.WebhookPayload{}, err
	}
	if len(batch) == 0 {
		return domain.WebhookPayload{}, errors.New("garmin webhook: empty event batch")
	}
	event := batch[0]

	receivedAt, err := time.Parse(time.RFC3339, event.CreatedTime)
	if err != nil {
		receivedAt = time.Now().UTC()
	}

	return domain.WebhookPayload{
		Provider:       domain.ProviderGarmin,
		Event:          event.EventType,
		ExternalUserID: externalUserID(event.Data),
		ReceivedAt:     receivedAt,
		Data:           event.Data,
	}, nil
}

func externalUserID(data json.RawMessage) string {
	var ids struct {
		UserID     string `json:"userId"`
		UserIDHash string `json:"userIdHash"`
	}
	_ = json.Unmarshal(data, &ids)
	if ids.UserID != "" {
		return ids.UserID
	}
	return ids.UserIDHash
}
