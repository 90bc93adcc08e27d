// Package app holds the application services and business logic.
package app

import (
	"time"

	"wearsync/internal/domain"
)

// ResolveStatus derives connection health from the last successful sync
// and the explicitly stored status. Explicit Paused/Revoked states win
// unconditionally; otherwise a missing sync timestamp means
// Disconnected, staleness past the provider threshold means Error, and
// anything fresher is Connected.
func ResolveStatus(latestSyncAt *time.Time, explicit domain.Status, staleThreshold time.Duration, now time.Time) domain.Status {
	switch explicit {
	case domain.StatusPaused, domain.StatusRevoked:
		return explicit
	case domain.StatusConnected, domain.StatusDisconnected, domain.StatusError:
		// fall through to time-based inference
	}

	if latestSyncAt == nil {
		return domain.StatusDisconnected
	}
	if now.Sub(*latestSyncAt) > staleThreshold {
		return domain.StatusError
	}
	return domain.StatusConnected
}
