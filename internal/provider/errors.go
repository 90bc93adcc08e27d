package provider

import (
	"errors"
	"fmt"

	"wearsync/internal/domain"
)

// ErrBadSignature indicates a webhook delivery whose signature was
// missing or did not match. The body must not be parsed after this.
var ErrBadSignature = errors.New("webhook signature missing or invalid")

// ConfigError indicates a required credential or secret is absent from
// the environment. It is raised at first use, never retried.
type ConfigError struct {
	Missing string // environment variable name
}

func (e *ConfigError) Error() string {
	return "missing required configuration: " + e.Missing
}

// AuthError indicates the provider token endpoint rejected an exchange
// or refresh. Body carries the raw provider error text.
type AuthError struct {
	Provider domain.Provider
	Body     string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s token endpoint rejected request: %s", e.Provider, e.Body)
}

// FetchError indicates a provider data-fetch endpoint returned a
// non-success response. Callers treat it as an empty result set rather
// than aborting a sync run. Status is the HTTP status code, or the
// provider's own error code for envelope-style APIs.
type FetchError struct {
	Provider domain.Provider
	Endpoint string
	Status   int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s failed with status %d", e.Provider, e.Endpoint, e.Status)
}
