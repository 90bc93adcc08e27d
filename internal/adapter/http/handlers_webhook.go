package adapthttp

import (
	"errors"
	"io"
	"net/http"

	"wearsync/internal/provider"
)

// handleWebhook receives a provider push. The body is authenticated
// before it is parsed; a delivery that fails verification is rejected
// without logging any of its content.
func (s *Server) handleWebhook(client provider.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		payload, err := client.ParseWebhook(r.Header, body)
		if errors.Is(err, provider.ErrBadSignature) {
			s.log.Warn().Str("provider", string(client.Name())).Msg("webhook signature rejected")
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.ExternalUserID == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing provider user id"))
			return
		}

		userID, err := s.sync.ResolveWebhookUser(r.Context(), client.Name(), payload.ExternalUserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if userID == "" {
			// Delivery for an account nobody has linked. Acknowledged so the
			// provider stops retrying, but nothing is stored.
			writeJSON(w, http.StatusAccepted, map[string]any{"status": "ignored"})
			return
		}

		if err := s.sync.RecordWebhook(r.Context(), userID, payload); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if err := s.sync.ProcessWebhook(r.Context(), client, userID, payload); err != nil {
			s.log.Error().Err(err).Str("provider", string(client.Name())).Str("user_id", userID).Msg("webhook processing failed")
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"status": "processed"})
	}
}
