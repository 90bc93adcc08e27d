// Package garmin integrates Garmin Connect: OAuth code/refresh flows,
// webhook signature verification, and normalization of wellness daily
// summaries and activities into the canonical schema.
package garmin

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

const (
	defaultAuthBase = "https://connectapi.garmin.com"
	defaultAPIBase  = "https://apis.garmin.com"

	authorizePath = "/oauth-service/oauth/authorize"
	tokenPath     = "/oauth-service/oauth/token"

	oauthScopes = "activity sleep heart-rate stress body-composition"

	// Garmin pushes daily; anything older than three days means the link
	// has gone quiet.
	staleThreshold = 72 * time.Hour

	envClientID      = "GARMIN_CLIENT_ID"
	envClientSecret  = "GARMIN_CLIENT_SECRET"
	envWebhookSecret = "GARMIN_WEBHOOK_SECRET"
)

// Client talks to Garmin Connect. Base URLs are overridable for tests.
type Client struct {
	HTTPClient *http.Client
	AuthBase   string
	APIBase    string
}

// New returns a Client against the production Garmin endpoints.
func New() *Client {
	return &Client{
		HTTPClient: http.DefaultClient,
		AuthBase:   defaultAuthBase,
		APIBase:    defaultAPIBase,
	}
}

// Name implements provider.Client.
func (c *Client) Name() domain.Provider { return domain.ProviderGarmin }

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

// AuthURL builds the Garmin authorization redirect.
func (c *Client) AuthURL(redirectURI, state string) (string, error) {
	clientID, _, err := credentials()
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", oauthScopes)
	if state != "" {
		params.Set("state", state)
	}
	return c.AuthBase + authorizePath + "?" + params.Encode(), nil
}

func (c *Client) oauthConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       strings.Fields(oauthScopes),
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthBase + authorizePath,
			TokenURL: c.AuthBase + tokenPath,
			// Garmin wants client credentials as HTTP Basic.
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// ExchangeCode trades an authorization code for a token set.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (domain.TokenSet, error) {
	clientID, clientSecret, err := credentials()
	if err != nil {
		return domain.TokenSet{}, err
	}

	conf := c.oauthConfig(clientID, clientSecret, redirectURI)
	tok, err := conf.Exchange(c.httpContext(ctx), code)
	if err != nil {
		return domain.TokenSet{}, c.mapTokenError(err)
	}
	return tokenSet(tok), nil
}

// RefreshToken rotates an expired access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (domain.TokenSet, error) {
	clientID, clientSecret, err := credentials()
	if err != nil {
		return domain.TokenSet{}, err
	}

	conf := c.oauthConfig(clientID, clientSecret, "")
	src := conf.TokenSource(c.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return domain.TokenSet{}, c.mapTokenError(err)
	}
	return tokenSet(tok), nil
}

func (c *Client) httpContext(ctx context.Context) context.Context {
	if c.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}

func (c *Client) mapTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return &provider.AuthError{Provider: domain.ProviderGarmin, Body: string(re.Body)}
	}
	return err
}

func tokenSet(tok *oauth2.Token) domain.TokenSet {
	scope, _ := tok.Extra("scope").(string)
	return domain.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Scope:        scope,
	}
}
