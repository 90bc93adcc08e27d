// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"fmt"
	"time"
)

// Provider identifies a wearable data provider.
type Provider string

// Supported providers.
const (
	ProviderGarmin   Provider = "garmin"
	ProviderWithings Provider = "withings"
)

// Status is the health of a provider connection. Explicit states
// (Paused, Revoked) always win over time-based inference.
type Status int

// Connection statuses.
const (
	StatusDisconnected Status = iota
	StatusConnected
	StatusError
	StatusPaused
	StatusRevoked
)

// String returns the wire/database representation of the status.
func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	case StatusPaused:
		return "paused"
	case StatusRevoked:
		return "revoked"
	default:
		return "disconnected"
	}
}

// ParseStatus converts a stored status string back into a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "disconnected", "":
		return StatusDisconnected, nil
	case "connected":
		return StatusConnected, nil
	case "error":
		return StatusError, nil
	case "paused":
		return StatusPaused, nil
	case "revoked":
		return StatusRevoked, nil
	}
	return StatusDisconnected, fmt.Errorf("unknown connection status %q", s)
}

// TokenSet is the result of an authorization-code exchange or a token
// refresh. Persistence is the caller's responsibility.
type TokenSet struct {
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
	Scope          string
	ExternalUserID string
}

// Connection links a user to a provider account. Exactly one row exists
// per (UserID, Provider); rows are never hard-deleted, only status
// transitions.
type Connection struct {
	UserID         string
	Provider       Provider
	ExternalUserID string
	AccessToken    []byte // encrypted at rest
	RefreshToken   []byte // encrypted at rest
	ExpiresAt      time.Time
	Scopes         []string
	Status         Status
	LatestSyncAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ConnectionRepository is the port for connection persistence.
type ConnectionRepository interface {
	UpsertConnection(ctx context.Context, conn *Connection) error
	GetConnection(ctx context.Context, userID string, provider Provider) (*Connection, error)
	ListConnections(ctx context.Context, userID string) ([]Connection, error)
	// FindUserByExternalID resolves the internal user for a provider-side
	// account id. Returns "" when no connection is linked.
	FindUserByExternalID(ctx context.Context, provider Provider, externalID string) (string, error)
	SetConnectionStatus(ctx context.Context, userID string, provider Provider, status Status) error
	// MarkSynced records a completed sync: status becomes Connected and
	// latest_sync_at is set to syncedAt.
	MarkSynced(ctx context.Context, userID string, provider Provider, syncedAt time.Time) error
}
