package garmin_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
	"wearsync/internal/provider/garmin"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("GARMIN_CLIENT_ID", "cid")
	t.Setenv("GARMIN_CLIENT_SECRET", "csecret")
}

func TestAuthURL(t *testing.T) {
	setCredentials(t)
	c := garmin.New()

	raw, err := c.AuthURL("https://app.example/callback", "state-1")
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "cid" {
		t.Errorf("client_id = %s", q.Get("client_id"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %s", q.Get("response_type"))
	}
	if q.Get("redirect_uri") != "https://app.example/callback" {
		t.Errorf("redirect_uri = %s", q.Get("redirect_uri"))
	}
	if q.Get("state") != "state-1" {
		t.Errorf("state = %s", q.Get("state"))
	}
	if !strings.Contains(q.Get("scope"), "sleep") {
		t.Errorf("scope = %s", q.Get("scope"))
	}
}

func TestAuthURL_MissingCredentials(t *testing.T) {
	t.Setenv("GARMIN_CLIENT_ID", "")
	c := garmin.New()

	_, err := c.AuthURL("https://app.example/callback", "s")
	var cfg *provider.ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("expected *provider.ConfigError, got %v", err)
	}
	if cfg.Missing != "GARMIN_CLIENT_ID" {
		t.Fatalf("missing = %s", cfg.Missing)
	}
}

func TestExchangeCode(t *testing.T) {
	setCredentials(t)

	var gotBasicUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth-service/oauth/token" {
			http.NotFound(w, r)
			return
		}
		gotBasicUser, _, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "access-1",
			"refresh_token": "refresh-1",
			"token_type": "Bearer",
			"expires_in": 3600,
			"scope": "activity sleep"
		}`))
	}))
	defer srv.Close()

	c := &garmin.Client{HTTPClient: srv.Client(), AuthBase: srv.URL, APIBase: srv.URL}

	set, err := c.ExchangeCode(context.Background(), "auth-code", "https://app.example/callback")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if set.AccessToken != "access-1" || set.RefreshToken != "refresh-1" {
		t.Fatalf("tokens = %+v", set)
	}
	if set.ExpiresAt.IsZero() {
		t.Fatal("expected an expiry derived from expires_in")
	}
	if set.Scope != "activity sleep" {
		t.Fatalf("scope = %q", set.Scope)
	}
	// Client credentials go over HTTP Basic, not the form body.
	if gotBasicUser != "cid" {
		t.Fatalf("basic auth user = %q", gotBasicUser)
	}
}

func TestExchangeCode_Rejection(t *testing.T) {
	setCredentials(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	c := &garmin.Client{HTTPClient: srv.Client(), AuthBase: srv.URL, APIBase: srv.URL}

	_, err := c.ExchangeCode(context.Background(), "bad-code", "https://app.example/callback")
	var authErr *provider.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *provider.AuthError, got %v", err)
	}
	if authErr.Provider != domain.ProviderGarmin {
		t.Fatalf("provider = %s", authErr.Provider)
	}
	if !strings.Contains(authErr.Body, "invalid_grant") {
		t.Fatalf("body = %q", authErr.Body)
	}
}

func TestRefreshToken(t *testing.T) {
	setCredentials(t)

	var gotGrantType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotGrantType = r.Form.Get("grant_type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-2","refresh_token":"refresh-2","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	c := &garmin.Client{HTTPClient: srv.Client(), AuthBase: srv.URL, APIBase: srv.URL}

	set, err := c.RefreshToken(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if gotGrantType != "refresh_token" {
		t.Fatalf("grant_type = %q", gotGrantType)
	}
	if set.AccessToken != "access-2" || set.RefreshToken != "refresh-2" {
		t.Fatalf("tokens = %+v", set)
	}
}

func TestFetchDailySummaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/wellness-service/wellness/dailySummary/") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"calendarDate":"2026-03-01"},{"calendarDate":"2026-03-02"}]`))
	}))
	defer srv.Close()

	c := &garmin.Client{HTTPClient: srv.Client(), AuthBase: srv.URL, APIBase: srv.URL}

	items, err := c.FetchDailySummaries(context.Background(), "token-1", mustDate(t, "2026-03-01"), mustDate(t, "2026-03-02"))
	if err != nil {
		t.Fatalf("FetchDailySummaries: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %s: %v", s, err)
	}
	return d
}

func TestFetchDailySummaries_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := &garmin.Client{HTTPClient: srv.Client(), AuthBase: srv.URL, APIBase: srv.URL}

	_, err := c.FetchDailySummaries(context.Background(), "token-1", mustDate(t, "2026-03-01"), mustDate(t, "2026-03-02"))
	var fe *provider.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *provider.FetchError, got %v", err)
	}
	if fe.Status != http.StatusForbidden || fe.Endpoint != "dailySummary" {
		t.Fatalf("fetch error = %+v", fe)
	}
}
