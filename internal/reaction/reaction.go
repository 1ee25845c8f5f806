// Package reaction coordinates like/dislike controls: an optimistic
// session-local lock per message, plus authoritative count updates
// echoed back by the server.
package reaction

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/christopherjohns/parley/internal/ratelimit"
	"github.com/christopherjohns/parley/internal/wire"
)

// Kind is a reaction control.
type Kind string

const (
	KindLike    Kind = wire.ReactionLike
	KindDislike Kind = wire.ReactionDislike
)

// Sender sends outbound frames. Satisfied by *conn.Manager.
type Sender interface {
	Send(f wire.Frame) bool
}

// View is the reaction-control surface.
type View interface {
	// MarkReacted shows the pressed control as active and disables
	// its sibling for the message.
	MarkReacted(messageID string, kind Kind)
}

// CountStore applies authoritative counts. Satisfied by *message.Store.
type CountStore interface {
	ApplyReactionCounts(id string, likes, dislikes int) bool
}

// Coordinator guards each message with a session-local lock so a second
// click cannot fire before the server round-trip completes. The lock is
// a UX nicety, not a correctness mechanism: a page reload forgets it,
// and the server's counts always win.
type Coordinator struct {
	mu      sync.Mutex
	sender  Sender
	view    View
	store   CountStore
	limiter *ratelimit.KeyLimiter
	reacted map[string]Kind
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLimiter caps outbound reaction frames.
func WithLimiter(l *ratelimit.KeyLimiter) Option {
	return func(c *Coordinator) { c.limiter = l }
}

// NewCoordinator creates a coordinator sending through sender, marking
// controls through view, and applying counts through store.
func NewCoordinator(sender Sender, view View, store CountStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		sender:  sender,
		view:    view,
		store:   store,
		reacted: make(map[string]Kind),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// React handles one click on a reaction control. A message already
// reacted to in this session is rejected locally with no network call.
func (c *Coordinator) React(messageID string, kind Kind) bool {
	if kind != KindLike && kind != KindDislike {
		return false
	}

	c.mu.Lock()
	if _, dup := c.reacted[messageID]; dup {
		c.mu.Unlock()
		return false
	}
	if c.limiter != nil && !c.limiter.Allow("reaction") {
		c.mu.Unlock()
		log.Warn().Str("id", messageID).Msg("reaction: outbound cap hit, dropping")
		return false
	}
	c.reacted[messageID] = kind
	c.mu.Unlock()

	c.view.MarkReacted(messageID, kind)
	c.sender.Send(&wire.ReactionRequest{Reaction: string(kind), MessageID: messageID})
	return true
}

// ApplyUpdate overwrites the displayed counts with the server's
// authoritative values, whatever the local lock believed.
func (c *Coordinator) ApplyUpdate(messageID string, likes, dislikes int) {
	c.store.ApplyReactionCounts(messageID, likes, dislikes)
}

// Reacted returns the kind the local user pressed for a message, if any.
func (c *Coordinator) Reacted(messageID string) (Kind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k, ok := c.reacted[messageID]
	return k, ok
}
