package provider

import (
	"fmt"

	"wearsync/internal/domain"
)

// Registry looks provider clients up by name.
type Registry struct {
	clients map[domain.Provider]Client
	order   []Client
}

// NewRegistry builds a Registry over the given clients.
func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[domain.Provider]Client, len(clients))}
	for _, c := range clients {
		r.clients[c.Name()] = c
		r.order = append(r.order, c)
	}
	return r
}

// Get returns the client for name, or an error for unsupported providers.
func (r *Registry) Get(name string) (Client, error) {
	c, ok := r.clients[domain.Provider(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
	return c, nil
}

// All returns the registered clients in registration order.
func (r *Registry) All() []Client {
	return r.order
}
