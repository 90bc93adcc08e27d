// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"github.com/rs/zerolog"

	"wearsync/internal/app"
	"wearsync/internal/provider"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	conns    *app.ConnectionService
	sync     *app.SyncService
	registry *provider.Registry
	log      zerolog.Logger
	baseURL  string
}

// New creates a Server wired to the given application services. baseURL
// is the externally reachable origin used to build OAuth redirect URIs.
func New(conns *app.ConnectionService, sync *app.SyncService, registry *provider.Registry, log zerolog.Logger, baseURL string) *Server {
	return &Server{conns: conns, sync: sync, registry: registry, log: log, baseURL: baseURL}
}

// Handler returns the root http.Handler for the application. Routes are
// registered once per provider in the registry.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/connections", s.handleConnections)

	for _, client := range s.registry.All() {
		name := string(client.Name())
		api.HandleFunc("/providers/"+name+"/connect", s.handleConnect(client))
		api.HandleFunc("/providers/"+name+"/callback", s.handleCallback(client))
		api.HandleFunc("/providers/"+name+"/backfill", s.handleBackfill(client))
		api.HandleFunc("/providers/"+name+"/reconnect", s.handleReconnect(client))
		api.HandleFunc("/providers/"+name+"/pause", s.handlePause(client))
		api.HandleFunc("/providers/"+name+"/revoke", s.handleRevoke(client))
		api.HandleFunc("/webhooks/"+name, s.handleWebhook(client))
	}

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(root)
}
