package adapthttp

import (
	"errors"
	"net/http"

	"wearsync/internal/app"
	"wearsync/internal/provider"
)

// handleBackfill runs a historical import over a bounded day-window.
// On a partial failure the response still carries the counts of rows
// persisted before the abort.
func (s *Server) handleBackfill(client provider.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		userID := r.URL.Query().Get("user")
		if userID == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing user"))
			return
		}
		days := intQuery(r, "days", 30)

		token, err := s.conns.AccessToken(r.Context(), client, userID)
		if err != nil {
			writeAccessError(w, err)
			return
		}

		res, err := s.sync.Backfill(r.Context(), client, app.BackfillOptions{
			UserID:      userID,
			AccessToken: token,
			Days:        days,
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":  err.Error(),
				"result": res,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": res})
	}
}

// handleReconnect runs the resume flow: a full-window backfill followed
// by the sync marker update.
func (s *Server) handleReconnect(client provider.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		userID := r.URL.Query().Get("user")
		if userID == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing user"))
			return
		}

		token, err := s.conns.AccessToken(r.Context(), client, userID)
		if err != nil {
			writeAccessError(w, err)
			return
		}

		err = s.sync.Reconnect(r.Context(), client, app.BackfillOptions{
			UserID:      userID,
			AccessToken: token,
			Days:        intQuery(r, "days", 0),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "reconnected"})
	}
}

func (s *Server) handlePause(client provider.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		userID := r.URL.Query().Get("user")
		if userID == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing user"))
			return
		}
		if err := s.conns.Pause(r.Context(), userID, client.Name()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "paused"})
	}
}

func (s *Server) handleRevoke(client provider.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		userID := r.URL.Query().Get("user")
		if userID == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing user"))
			return
		}
		if err := s.conns.Revoke(r.Context(), userID, client.Name()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "revoked"})
	}
}

// writeAccessError maps token lookup failures: a missing connection is
// the caller's mistake, a rejected refresh is the provider's.
func writeAccessError(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrNotConnected) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var authErr *provider.AuthError
	if errors.As(err, &authErr) {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}
