// Package provider defines the port implemented by each wearable
// provider integration, the shared error taxonomy, and a name-based
// registry for looking integrations up.
package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"wearsync/internal/domain"
)

// Client is implemented once per provider. Implementations perform no
// persistence; tokens and records they produce are the caller's to
// store.
type Client interface {
	Name() domain.Provider

	// AuthURL builds the provider authorization redirect. Missing client
	// credentials surface as a *ConfigError at call time.
	AuthURL(redirectURI, state string) (string, error)
	// ExchangeCode trades an authorization code for tokens. A rejected
	// exchange surfaces as a *AuthError carrying the provider's response
	// text.
	ExchangeCode(ctx context.Context, code, redirectURI string) (domain.TokenSet, error)
	RefreshToken(ctx context.Context, refreshToken string) (domain.TokenSet, error)

	// VerifyWebhook checks the HMAC signature over the raw body. A missing
	// secret or signature yields false, never an error.
	VerifyWebhook(signature string, body []byte) bool
	// ParseWebhook authenticates and then decodes a webhook delivery.
	// Verification happens strictly before any JSON parsing of the body;
	// on failure it returns ErrBadSignature and the bytes are never
	// deserialized.
	ParseWebhook(header http.Header, body []byte) (domain.WebhookPayload, error)

	// FetchDailySummaries and FetchActivities return the provider's raw
	// payload items for the window. A non-success provider response
	// surfaces as a *FetchError.
	FetchDailySummaries(ctx context.Context, accessToken string, start, end time.Time) ([]json.RawMessage, error)
	FetchActivities(ctx context.Context, accessToken string, start, end time.Time) ([]json.RawMessage, error)

	// NormalizeDaily and NormalizeActivity are pure mappings from one raw
	// payload item into the canonical record. UserID is left empty for
	// the caller to fill in.
	NormalizeDaily(raw json.RawMessage) (domain.DailyMetric, error)
	NormalizeActivity(raw json.RawMessage) (domain.Activity, error)

	// StaleThreshold is the provider-specific maximum age of a
	// connection's latest sync before it is reported as errored.
	StaleThreshold() time.Duration
}
