// Package client assembles one room view: the connection, the message
// store, presence, the composer, and the reaction coordinator, driven
// by a single dispatch loop. A client is constructed on room entry and
// torn down on navigation; there is no ambient global state.
package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/christopherjohns/parley/internal/composer"
	"github.com/christopherjohns/parley/internal/conn"
	"github.com/christopherjohns/parley/internal/message"
	"github.com/christopherjohns/parley/internal/presence"
	"github.com/christopherjohns/parley/internal/ratelimit"
	"github.com/christopherjohns/parley/internal/reaction"
	"github.com/christopherjohns/parley/internal/wire"
)

// reactionBurst caps outbound reaction frames per minute.
const reactionBurst = 30

// StatusView shows the connection indicator.
type StatusView interface {
	SetConnectionState(state string)
}

// Views bundles the display surfaces one room view renders into. The
// same core drives a markup target, the terminal, or test fakes.
type Views struct {
	Messages  message.Renderer
	Presence  presence.View
	Composer  composer.View
	Reactions reaction.View
	Status    StatusView
}

// Options configures a room-view client. Everything is supplied by the
// hosting shell at construction time.
type Options struct {
	// URL is the room-scoped socket endpoint.
	URL string
	// RoomID names the room, used as the history-cache key.
	RoomID string
	// Username is the local user, for own-message and reply flags.
	Username string
	// HistoryPage is the page requested on every open. Defaults to 1.
	HistoryPage int
	// Cache, when set, primes the view with the last seen history
	// page while the real fetch is in flight.
	Cache *message.Cache

	ConnOptions     []conn.Option
	ComposerOptions []composer.Option
}

// Client is one live room view.
type Client struct {
	id   string
	opts Options

	conn      *conn.Manager
	store     *message.Store
	presence  *presence.Tracker
	composer  *composer.Composer
	reactions *reaction.Coordinator
	status    StatusView

	done chan struct{}
}

// New builds a client for one room view. Run starts it.
func New(opts Options, views Views) *Client {
	if opts.HistoryPage <= 0 {
		opts.HistoryPage = 1
	}

	m := conn.NewManager(opts.URL, opts.ConnOptions...)
	store := message.NewStore(views.Messages, opts.Username)

	return &Client{
		id:       uuid.NewString(),
		opts:     opts,
		conn:     m,
		store:    store,
		presence: presence.NewTracker(m, views.Presence),
		composer: composer.New(m, views.Composer, opts.ComposerOptions...),
		reactions: reaction.NewCoordinator(m, views.Reactions, store,
			reaction.WithLimiter(ratelimit.NewKeyLimiter(reactionBurst, time.Minute))),
		status: views.Status,
		done:   make(chan struct{}),
	}
}

// ID identifies this client instance in logs.
func (c *Client) ID() string {
	return c.id
}

// Run connects and consumes the event stream until the connection is
// permanently down. Events are handled strictly in arrival order.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)

	log.Info().Str("client", c.id).Str("room", c.opts.RoomID).Msg("client: entering room")
	if err := c.conn.Connect(ctx); err != nil {
		return err
	}

	for ev := range c.conn.Events() {
		switch e := ev.(type) {
		case conn.StateChange:
			c.status.SetConnectionState(e.State.String())
			if e.State == conn.StateOpen {
				c.onOpen()
			}
		case conn.FrameReceived:
			c.dispatch(e.Frame)
		}
	}
	return nil
}

// Close tears the room view down: normal-code disconnect, no reconnect.
func (c *Client) Close() {
	c.conn.Disconnect()
}

// Done is closed once the dispatch loop has drained.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// onOpen runs the join sequence. The full history reload here is the
// correctness mechanism across reconnects: whatever was missed on the
// old connection is covered by the wholesale replace that follows.
func (c *Client) onOpen() {
	if c.opts.Cache != nil && c.store.Len() == 0 {
		if cached := c.opts.Cache.Get(c.opts.RoomID); len(cached) > 0 {
			log.Debug().Int("messages", len(cached)).Msg("client: priming view from cache")
			c.store.ReplaceHistory(cached)
		}
	}

	c.RequestHistory(c.opts.HistoryPage)
	c.presence.RequestRefresh()
}

// RequestHistory asks the server for one page of past messages.
func (c *Client) RequestHistory(page int) {
	if !c.conn.Send(&wire.FetchMessages{Page: page}) {
		log.Debug().Int("page", page).Msg("client: history request dropped")
	}
}

// OnVisible is called by the hosting shell when the view regains
// visibility; presence may have gone stale while backgrounded.
func (c *Client) OnVisible() {
	c.presence.RequestRefresh()
}

// dispatch routes one inbound frame to its owning component.
func (c *Client) dispatch(f wire.Frame) {
	switch fr := f.(type) {
	case *wire.MessagesHistory:
		c.store.ReplaceHistory(fr.Messages)
		if c.opts.Cache != nil {
			c.opts.Cache.Put(c.opts.RoomID, fr.Messages)
		}
	case *wire.NewMessage:
		c.store.AppendLive(fr.Message)
		if c.opts.Cache != nil {
			c.opts.Cache.Append(c.opts.RoomID, fr.Message)
		}
	case *wire.TypingSignal:
		c.presence.ApplyTyping(fr.User, fr.IsTyping)
	case *wire.OnlineUsers:
		c.presence.ApplyPresence(fr.Users, fr.Count)
	case *wire.UserJoined, *wire.UserLeft:
		c.presence.RequestRefresh()
	case *wire.ReactionUpdate:
		c.reactions.ApplyUpdate(fr.MessageID, fr.Likes, fr.Dislikes)
	case *wire.MessageDeleted:
		c.store.ApplyDelete(fr.MessageID)
	case *wire.MessageEdited:
		c.store.ApplyEdit(fr.MessageID, fr.NewContent)
	default:
		// Client-to-server frames echoed our way; nothing to do.
		log.Debug().Msgf("client: ignoring inbound %T", f)
	}
}

// Composer returns the outbound composition surface.
func (c *Client) Composer() *composer.Composer {
	return c.composer
}

// Reactions returns the reaction controls.
func (c *Client) Reactions() *reaction.Coordinator {
	return c.reactions
}

// Store returns the message store.
func (c *Client) Store() *message.Store {
	return c.store
}

// Presence returns the presence tracker.
func (c *Client) Presence() *presence.Tracker {
	return c.presence
}

// ConnState reports the connection state for the status endpoint.
func (c *Client) ConnState() string {
	return c.conn.State().String()
}

// MessageCount reports how many messages the view holds.
func (c *Client) MessageCount() int {
	return c.store.Len()
}

// OnlineCount reports the latest presence count.
func (c *Client) OnlineCount() int {
	_, n := c.presence.Online()
	return n
}
