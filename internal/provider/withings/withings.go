// Package withings integrates Withings: OAuth code/refresh flows via
// the non-standard status-enveloped token endpoint, webhook signature
// verification, and normalization of body measurements.
package withings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

const (
	defaultAPIBase   = "https://wbsapi.withings.net"
	defaultAuthorize = "https://account.withings.com/oauth2_user/authorize2"

	oauthScope = "user.metrics"

	// Withings scale readings are weekly-cadence at best.
	staleThreshold = 168 * time.Hour

	envClientID      = "WITHINGS_CLIENT_ID"
	envClientSecret  = "WITHINGS_CLIENT_SECRET"
	envWebhookSecret = "WITHINGS_WEBHOOK_SECRET"
)

// Client talks to the Withings API. Base URLs are overridable for tests.
type Client struct {
	HTTPClient   *http.Client
	APIBase      string
	AuthorizeURL string
}

// New returns a Client against the production Withings endpoints.
func New() *Client {
	return &Client{
		HTTPClient:   http.DefaultClient,
		APIBase:      defaultAPIBase,
		AuthorizeURL: defaultAuthorize,
	}
}

// Name implements provider.Client.
func (c *Client) Name() domain.Provider { return domain.ProviderWithings }

// StaleThreshold implements provider.Client.
func (c *Client) StaleThreshold() time.Duration { return staleThreshold }

func credentials() (clientID, clientSecret string, err error) {
	clientID = os.Getenv(envClientID)
	if clientID == "" {
		return "", "", &provider.ConfigError{Missing: envClientID}
	}
	clientSecret = os.Getenv(envClientSecret)
	if clientSecret == "" {
		return "", "", &provider.ConfigError{Missing: envClientSecret}
	}
	return clientID, clientSecret, nil
}

// AuthURL builds the Withings authorization redirect.
func (c *Client) AuthURL(redirectURI, state string) (string, error) {
	clientID, _, err := credentials()
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", clientID)
	params.Set("state", state)
	params.Set("scope", oauthScope)
	params.Set("redirect_uri", redirectURI)
	return c.AuthorizeURL + "?" + params.Encode(), nil
}

// tokenEnvelope is the Withings v2 response wrapper. Success is
// status == 0; any other value is an authentication failure.
type tokenEnvelope struct {
	Status int       `json:"status"`
	Error  string    `json:"error"`
	Body   tokenBody `json:"body"`
}

type tokenBody struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	Scope        string      `json:"scope"`
	UserID       json.Number `json:"userid"`
}

// ExchangeCode trades an authorization code for a token set. Withings
// signals failure through the status field of the JSON envelope rather
// than the HTTP status, so the flow cannot go through x/oauth2.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (domain.TokenSet, error) {
	clientID, clientSecret, err := credentials()
	if err != nil {
		return domain.TokenSet{}, err
	}

	form := url.Values{}
	form.Set("action", "requesttoken")
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	return c.requestToken(ctx, form)
}

// RefreshToken rotates an expired access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (domain.TokenSet, error) {
	clientID, clientSecret, err := credentials()
	if err != nil {
		return domain.TokenSet{}, err
	}

	form := url.Values{}
	form.Set("action", "requesttoken")
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)
	return c.requestToken(ctx, form)
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (domain.TokenSet, error) {
	env, err := c.postEnvelope(ctx, c.APIBase+"/v2/oauth2", form)
	if err != nil {
		return domain.TokenSet{}, err
	}
	if env.Status != 0 {
		return domain.TokenSet{}, &provider.AuthError{Provider: domain.ProviderWithings, Body: envelopeErrorText(env)}
	}

	set := domain.TokenSet{
		AccessToken:    env.Body.AccessToken,
		RefreshToken:   env.Body.RefreshToken,
		Scope:          env.Body.Scope,
		ExternalUserID: env.Body.UserID.String(),
	}
	if env.Body.ExpiresIn > 0 {
		set.ExpiresAt = time.Now().Add(time.Duration(env.Body.ExpiresIn) * time.Second)
	}
	return set, nil
}

func (c *Client) postEnvelope(ctx context.Context, endpoint string, form url.Values) (*tokenEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var env tokenEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func envelopeErrorText(env *tokenEnvelope) string {
	if env.Error != "" {
		return env.Error
	}
	return "status " + strconv.Itoa(env.Status)
}
