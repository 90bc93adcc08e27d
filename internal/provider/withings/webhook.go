package withings

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

// SignatureHeader carries the base64 HMAC-SHA256 over the raw body.
const SignatureHeader = "signature"

// VerifyWebhook checks the base64 HMAC-SHA256 signature over the raw
// body. Returns false when the webhook secret or the signature is
// absent.
func (c *Client) VerifyWebhook(signature string, body []byte) bool {
	secret := os.Getenv(envWebhookSecret)
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ParseWebhook authenticates a Withings notification and wraps the
// whole body as the envelope data. The body is never decoded before
// the signature check passes.
func (c *Client) ParseWebhook(header http.Header, body []byte) (domain.WebhookPayload, error) {
	if !c.VerifyWebhook(header.Get(SignatureHeader), body) {
		return domain.WebhookPayload{}, provider.ErrBadSignature
	}

	var note struct {
		UserID       json.Number `json:"userid"`
		Notification struct {
			Category string      `json:"category"`
			UserID   json.Number `json:"userid"`
		} `json:"notification"`
	}
	if err := json.Unmarshal(body, &note); err != nil {
		return domain.WebhookPayload{}, err
	}

	event := note.Notification.Category
	if event == "" {
		event = "unknown"
	}
	externalID := note.UserID.String()
	if externalID == "" {
		externalID = note.Notification.UserID.String()
	}

	return domain.WebhookPayload{
		Provider:       domain.ProviderWithings,
		Event:          event,
		ExternalUserID: externalID,
		ReceivedAt:     time.Now().UTC(),
		Data:           json.RawMessage(body),
	}, nil
}
