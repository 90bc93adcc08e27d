package adapthttp

import (
	"errors"
	"net/http"
)

// handleConnections lists the user's provider links with their resolved
// status.
func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing user"))
		return
	}

	views, err := s.conns.List(r.Context(), s.registry, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": views})
}
