package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wearsync/internal/app"
	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

func newConnectionService(t *testing.T, conns *mockConnRepo) (*app.ConnectionService, *app.TokenCipher) {
	t.Helper()
	cipher := testCipher(t)
	return app.NewConnectionService(conns, cipher, zerolog.Nop()), cipher
}

func TestStartAuth_GeneratesState(t *testing.T) {
	svc, _ := newConnectionService(t, &mockConnRepo{})

	authURL, state, err := svc.StartAuth(&fakeClient{}, "https://app.example/callback")
	if err != nil {
		t.Fatalf("StartAuth: %v", err)
	}
	if state == "" {
		t.Fatal("expected a non-empty state")
	}
	if !strings.Contains(authURL, state) {
		t.Fatalf("auth URL %q does not carry state %q", authURL, state)
	}

	_, state2, _ := svc.StartAuth(&fakeClient{}, "https://app.example/callback")
	if state2 == state {
		t.Fatal("expected a fresh state per call")
	}
}

func TestCompleteAuth_StoresEncryptedTokens(t *testing.T) {
	var stored *domain.Connection
	conns := &mockConnRepo{
		upsertFn: func(_ context.Context, conn *domain.Connection) error {
			stored = conn
			return nil
		},
	}
	svc, cipher := newConnectionService(t, conns)

	expiry := time.Now().Add(time.Hour)
	client := &fakeClient{
		exchangeFn: func(context.Context, string, string) (domain.TokenSet, error) {
			return domain.TokenSet{
				AccessToken:    "plain-access",
				RefreshToken:   "plain-refresh",
				ExpiresAt:      expiry,
				Scope:          "activity sleep",
				ExternalUserID: "garmin-123",
			}, nil
		},
	}

	conn, err := svc.CompleteAuth(context.Background(), client, "u1", "code", "https://app.example/callback")
	if err != nil {
		t.Fatalf("CompleteAuth: %v", err)
	}
	if stored == nil {
		t.Fatal("expected the connection to be upserted")
	}
	if conn.Status != domain.StatusConnected {
		t.Fatalf("status = %s, want connected", conn.Status)
	}
	if conn.ExternalUserID != "garmin-123" {
		t.Fatalf("external id = %s", conn.ExternalUserID)
	}
	if len(conn.Scopes) != 2 || conn.Scopes[0] != "activity" {
		t.Fatalf("scopes = %v", conn.Scopes)
	}

	// Tokens never reach storage in the clear.
	if string(stored.AccessToken) == "plain-access" {
		t.Fatal("access token stored in plaintext")
	}
	plain, err := cipher.Open(stored.AccessToken)
	if err != nil || plain != "plain-access" {
		t.Fatalf("stored access token did not round-trip: %q, %v", plain, err)
	}
	plain, err = cipher.Open(stored.RefreshToken)
	if err != nil || plain != "plain-refresh" {
		t.Fatalf("stored refresh token did not round-trip: %q, %v", plain, err)
	}
}

func TestCompleteAuth_ExternalIDFallsBackToUser(t *testing.T) {
	var stored *domain.Connection
	conns := &mockConnRepo{
		upsertFn: func(_ context.Context, conn *domain.Connection) error {
			stored = conn
			return nil
		},
	}
	svc, _ := newConnectionService(t, conns)

	client := &fakeClient{
		exchangeFn: func(context.Context, string, string) (domain.TokenSet, error) {
			return domain.TokenSet{AccessToken: "at", RefreshToken: "rt"}, nil
		},
	}
	if _, err := svc.CompleteAuth(context.Background(), client, "u1", "code", ""); err != nil {
		t.Fatalf("CompleteAuth: %v", err)
	}
	if stored.ExternalUserID != "u1" {
		t.Fatalf("external id = %q, want fallback to user id", stored.ExternalUserID)
	}
}

func TestCompleteAuth_ExchangeRejection(t *testing.T) {
	conns := &mockConnRepo{
		upsertFn: func(context.Context, *domain.Connection) error {
			t.Fatal("nothing must be stored on a rejected exchange")
			return nil
		},
	}
	svc, _ := newConnectionService(t, conns)

	client := &fakeClient{
		exchangeFn: func(context.Context, string, string) (domain.TokenSet, error) {
			return domain.TokenSet{}, &provider.AuthError{Provider: domain.ProviderGarmin, Body: `{"error":"invalid_grant"}`}
		},
	}
	_, err := svc.CompleteAuth(context.Background(), client, "u1", "bad-code", "")
	var authErr *provider.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *provider.AuthError, got %v", err)
	}
}

func TestAccessToken_NotConnected(t *testing.T) {
	svc, _ := newConnectionService(t, &mockConnRepo{})

	_, err := svc.AccessToken(context.Background(), &fakeClient{}, "u1")
	if !errors.Is(err, app.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestAccessToken_FreshTokenReturnedAsIs(t *testing.T) {
	conns := &mockConnRepo{}
	svc, cipher := newConnectionService(t, conns)

	sealed, _ := cipher.Seal("current-access")
	conns.getFn = func(context.Context, string, domain.Provider) (*domain.Connection, error) {
		return &domain.Connection{
			UserID:      "u1",
			Provider:    domain.ProviderGarmin,
			AccessToken: sealed,
			ExpiresAt:   time.Now().Add(time.Hour),
		}, nil
	}

	token, err := svc.AccessToken(context.Background(), &fakeClient{}, "u1")
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != "current-access" {
		t.Fatalf("token = %q", token)
	}
}

func TestAccessToken_ExpiredTokenTriggersRefresh(t *testing.T) {
	conns := &mockConnRepo{}
	svc, cipher := newConnectionService(t, conns)

	sealedAccess, _ := cipher.Seal("stale-access")
	sealedRefresh, _ := cipher.Seal("refresh-me")
	stored := &domain.Connection{
		UserID:         "u1",
		Provider:       domain.ProviderGarmin,
		ExternalUserID: "garmin-123",
		AccessToken:    sealedAccess,
		RefreshToken:   sealedRefresh,
		ExpiresAt:      time.Now().Add(-time.Minute),
	}
	conns.getFn = func(context.Context, string, domain.Provider) (*domain.Connection, error) {
		return stored, nil
	}
	conns.upsertFn = func(_ context.Context, conn *domain.Connection) error {
		stored = conn
		return nil
	}

	var refreshedWith string
	client := &fakeClient{
		refreshFn: func(_ context.Context, refreshToken string) (domain.TokenSet, error) {
			refreshedWith = refreshToken
			return domain.TokenSet{
				AccessToken:  "new-access",
				RefreshToken: "new-refresh",
				ExpiresAt:    time.Now().Add(time.Hour),
			}, nil
		},
	}

	token, err := svc.AccessToken(context.Background(), client, "u1")
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != "new-access" {
		t.Fatalf("token = %q, want refreshed", token)
	}
	if refreshedWith != "refresh-me" {
		t.Fatalf("refresh used %q", refreshedWith)
	}
	// The provider did not echo the account id; the stored one survives.
	if stored.ExternalUserID != "garmin-123" {
		t.Fatalf("external id = %q after refresh", stored.ExternalUserID)
	}
}

func TestPauseAndRevoke(t *testing.T) {
	var gotStatus domain.Status
	conns := &mockConnRepo{
		setStatusFn: func(_ context.Context, _ string, _ domain.Provider, s domain.Status) error {
			gotStatus = s
			return nil
		},
	}
	svc, _ := newConnectionService(t, conns)

	if err := svc.Pause(context.Background(), "u1", domain.ProviderGarmin); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if gotStatus != domain.StatusPaused {
		t.Fatalf("status = %s, want paused", gotStatus)
	}

	if err := svc.Revoke(context.Background(), "u1", domain.ProviderGarmin); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if gotStatus != domain.StatusRevoked {
		t.Fatalf("status = %s, want revoked", gotStatus)
	}
}

func TestList_ResolvesStatusPerProviderThreshold(t *testing.T) {
	eightyHoursAgo := time.Now().Add(-80 * time.Hour)
	conns := &mockConnRepo{
		listFn: func(context.Context, string) ([]domain.Connection, error) {
			return []domain.Connection{
				{UserID: "u1", Provider: domain.ProviderGarmin, Status: domain.StatusConnected, LatestSyncAt: &eightyHoursAgo},
				{UserID: "u1", Provider: domain.ProviderWithings, Status: domain.StatusConnected, LatestSyncAt: &eightyHoursAgo},
			}, nil
		},
	}
	svc, _ := newConnectionService(t, conns)

	registry := provider.NewRegistry(
		&fakeClient{name: domain.ProviderGarmin, stale: 72 * time.Hour},
		&fakeClient{name: domain.ProviderWithings, stale: 168 * time.Hour},
	)

	views, err := svc.List(context.Background(), registry, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	// The same 80h-old sync is stale for a daily provider and fine for a
	// weekly one.
	if views[0].Status != "error" {
		t.Fatalf("garmin status = %s, want error", views[0].Status)
	}
	if views[1].Status != "connected" {
		t.Fatalf("withings status = %s, want connected", views[1].Status)
	}
}
