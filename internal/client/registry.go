package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Factory builds a client for a room. The registry owns the result.
type Factory func(roomID string) *Client

// Registry enforces the room-view lifecycle: at most one live client
// per room, created on entry and torn down on navigation away.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	active  map[string]*Client
}

// NewRegistry creates a registry building clients through factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		active:  make(map[string]*Client),
	}
}

// Enter returns the live client for a room, creating and starting one
// if none exists.
func (r *Registry) Enter(ctx context.Context, roomID string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.active[roomID]; ok {
		return c
	}

	c := r.factory(roomID)
	r.active[roomID] = c
	go func() {
		if err := c.Run(ctx); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("registry: client stopped")
		}
	}()
	return c
}

// Leave tears down the client for a room, if any.
func (r *Registry) Leave(roomID string) {
	r.mu.Lock()
	c, ok := r.active[roomID]
	if ok {
		delete(r.active, roomID)
	}
	r.mu.Unlock()

	if ok {
		c.Close()
	}
}

// Switch navigates to a room: every other view is torn down first, so
// a single-view shell never holds two live connections.
func (r *Registry) Switch(ctx context.Context, roomID string) *Client {
	r.mu.Lock()
	var closing []*Client
	for id, c := range r.active {
		if id != roomID {
			closing = append(closing, c)
			delete(r.active, id)
		}
	}
	r.mu.Unlock()

	for _, c := range closing {
		c.Close()
	}
	return r.Enter(ctx, roomID)
}

// CloseAll tears down every live view.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.active))
	for _, c := range r.active {
		clients = append(clients, c)
	}
	r.active = make(map[string]*Client)
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

// Count returns the number of live room views.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
