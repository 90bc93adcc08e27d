package adapthttp

import (
	"errors"
	"net/http"

	"wearsync/internal/provider"
)

// handleConnect starts the authorization flow: it stores the state and
// the connecting user in short-lived cookies and redirects to the
// provider.
func (s *Server) handleConnect(client provider.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		userID := r.URL.Query().Get("user")
		if userID == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing user"))
			return
		}

		authURL, state, err := s.conns.StartAuth(client, s.callbackURL(client))
		if err != nil {
			// Typically a *provider.ConfigError for missing credentials.
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "oauth_state",
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
			MaxAge:   300,
		})
		http.SetCookie(w, &http.Cookie{
			Name:     "connect_user",
			Value:    userID,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   300,
		})
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// handleCallback completes the flow: it validates the state echo,
// exchanges the code, and reports the linked connection.
func (s *Server) handleCallback(client provider.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		state, err := r.Cookie("oauth_state")
		if err != nil || r.URL.Query().Get("state") != state.Value {
			writeError(w, http.StatusBadRequest, errors.New("invalid state"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

		userCookie, err := r.Cookie("connect_user")
		if err != nil || userCookie.Value == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing connect user"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "connect_user", MaxAge: -1, Path: "/"})

		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing code"))
			return
		}

		conn, err := s.conns.CompleteAuth(r.Context(), client, userCookie.Value, code, s.callbackURL(client))
		if err != nil {
			var authErr *provider.AuthError
			if errors.As(err, &authErr) {
				writeError(w, http.StatusBadGateway, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "linked",
			"provider": conn.Provider,
		})
	}
}

func (s *Server) callbackURL(client provider.Client) string {
	return s.baseURL + "/api/providers/" + string(client.Name()) + "/callback"
}
