package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
)

// ErrNotConnected indicates no connection row exists for the user and
// provider.
var ErrNotConnected = errors.New("provider not connected")

// ConnectionService owns the OAuth connection lifecycle: starting an
// authorization, completing the code exchange, refreshing tokens, and
// explicit pause/revoke transitions. Tokens are encrypted before they
// reach the repository.
type ConnectionService struct {
	connections domain.ConnectionRepository
	cipher      *TokenCipher
	log         zerolog.Logger

	now func() time.Time
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(connections domain.ConnectionRepository, cipher *TokenCipher, log zerolog.Logger) *ConnectionService {
	return &ConnectionService{
		connections: connections,
		cipher:      cipher,
		log:         log,
		now:         time.Now,
	}
}

// StartAuth generates a fresh state value and builds the provider
// authorization URL for it.
func (s *ConnectionService) StartAuth(client provider.Client, redirectURI string) (authURL, state string, err error) {
	state, err = generateState()
	if err != nil {
		return "", "", err
	}
	authURL, err = client.AuthURL(redirectURI, state)
	if err != nil {
		return "", "", err
	}
	return authURL, state, nil
}

// CompleteAuth exchanges the authorization code and upserts the
// connection row with encrypted tokens and status Connected.
func (s *ConnectionService) CompleteAuth(ctx context.Context, client provider.Client, userID, code, redirectURI string) (*domain.Connection, error) {
	tokens, err := client.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}
	conn, err := s.storeTokens(ctx, client, userID, tokens)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("provider", string(client.Name())).Str("user_id", userID).Msg("provider linked")
	return conn, nil
}

// Refresh rotates the stored tokens through the provider's refresh
// flow and re-persists the connection.
func (s *ConnectionService) Refresh(ctx context.Context, client provider.Client, userID string) (*domain.Connection, error) {
	conn, err := s.connections.GetConnection(ctx, userID, client.Name())
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ErrNotConnected
	}

	refreshToken, err := s.cipher.Open(conn.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt refresh token: %w", err)
	}

	tokens, err := client.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if tokens.ExternalUserID == "" {
		tokens.ExternalUserID = conn.ExternalUserID
	}
	return s.storeTokens(ctx, client, userID, tokens)
}

// AccessToken returns a usable plaintext access token for the user,
// refreshing through the provider first when the stored one has
// expired.
func (s *ConnectionService) AccessToken(ctx context.Context, client provider.Client, userID string) (string, error) {
	conn, err := s.connections.GetConnection(ctx, userID, client.Name())
	if err != nil {
		return "", err
	}
	if conn == nil {
		return "", ErrNotConnected
	}

	if !conn.ExpiresAt.IsZero() && !s.now().Before(conn.ExpiresAt) {
		conn, err = s.Refresh(ctx, client, userID)
		if err != nil {
			return "", err
		}
	}
	return s.cipher.Open(conn.AccessToken)
}

// Pause marks the connection paused; syncing resumes only on an
// explicit reconnect.
func (s *ConnectionService) Pause(ctx context.Context, userID string, name domain.Provider) error {
	return s.connections.SetConnectionStatus(ctx, userID, name, domain.StatusPaused)
}

// Revoke marks the connection revoked. The row is kept; only the
// status transitions.
func (s *ConnectionService) Revoke(ctx context.Context, userID string, name domain.Provider) error {
	return s.connections.SetConnectionStatus(ctx, userID, name, domain.StatusRevoked)
}

// ConnectionView is the resolved health of one provider link.
type ConnectionView struct {
	Provider     domain.Provider `json:"provider"`
	Status       string          `json:"status"`
	LatestSyncAt *time.Time      `json:"latestSyncAt,omitempty"`
	Scopes       []string        `json:"scopes,omitempty"`
}

// List returns the user's connections with their status resolved
// against each provider's staleness threshold.
func (s *ConnectionService) List(ctx context.Context, registry *provider.Registry, userID string) ([]ConnectionView, error) {
	conns, err := s.connections.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]ConnectionView, 0, len(conns))
	for _, conn := range conns {
		client, err := registry.Get(string(conn.Provider))
		if err != nil {
			continue
		}
		status := ResolveStatus(conn.LatestSyncAt, conn.Status, client.StaleThreshold(), now)
		views = append(views, ConnectionView{
			Provider:     conn.Provider,
			Status:       status.String(),
			LatestSyncAt: conn.LatestSyncAt,
			Scopes:       conn.Scopes,
		})
	}
	return views, nil
}

func (s *ConnectionService) storeTokens(ctx context.Context, client provider.Client, userID string, tokens domain.TokenSet) (*domain.Connection, error) {
	access, err := s.cipher.Seal(tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.cipher.Seal(tokens.RefreshToken)
	if err != nil {
		return nil, err
	}

	externalID := tokens.ExternalUserID
	if externalID == "" {
		externalID = userID
	}

	now := s.now().UTC()
	conn := &domain.Connection{
		UserID:         userID,
		Provider:       client.Name(),
		ExternalUserID: externalID,
		AccessToken:    access,
		RefreshToken:   refresh,
		ExpiresAt:      tokens.ExpiresAt,
		Scopes:         strings.Fields(tokens.Scope),
		Status:         domain.StatusConnected,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.connections.UpsertConnection(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
