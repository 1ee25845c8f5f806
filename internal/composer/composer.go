// Package composer owns outbound message composition: the draft, the
// optional reply target, and typing start/stop emission.
package composer

import (
	"strings"
	"sync"
	"time"

	"github.com/christopherjohns/parley/internal/wire"
)

// defaultStopDelay is how long after the last keystroke the composer
// announces that typing stopped.
const defaultStopDelay = 3 * time.Second

// Sender sends outbound frames. Satisfied by *conn.Manager.
type Sender interface {
	Send(f wire.Frame) bool
	IsOpen() bool
}

// View is the composition surface.
type View interface {
	// ShowReplyTarget shows the "replying to X" affordance.
	ShowReplyTarget(author string)
	// ClearReplyTarget removes it.
	ClearReplyTarget()
	// ClearInput empties the draft box after a successful send.
	ClearInput()
}

// Composer tracks the draft's reply target and self-typing state.
type Composer struct {
	mu        sync.Mutex
	sender    Sender
	view      View
	stopDelay time.Duration

	replyToID     string
	replyToAuthor string
	typing        bool
	timer         *time.Timer
}

// Option configures a Composer.
type Option func(*Composer)

// WithStopDelay overrides the typing-stop debounce delay.
func WithStopDelay(d time.Duration) Option {
	return func(c *Composer) { c.stopDelay = d }
}

// New creates a Composer sending through sender and rendering through view.
func New(sender Sender, view View, opts ...Option) *Composer {
	c := &Composer{
		sender:    sender,
		view:      view,
		stopDelay: defaultStopDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send emits the draft as a message frame. Empty drafts and closed
// connections are silently rejected; neither clears the reply target,
// so the user can retry as-is.
func (c *Composer) Send(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if !c.sender.IsOpen() {
		return false
	}

	c.mu.Lock()
	replyTo := c.replyToID
	c.replyToID = ""
	c.replyToAuthor = ""
	c.stopTypingLocked()
	c.mu.Unlock()

	c.sender.Send(&wire.ChatMessage{Message: trimmed, ReplyToID: replyTo})
	c.view.ClearInput()
	c.view.ClearReplyTarget()
	return true
}

// SetReplyTarget records the message being replied to and shows the
// affordance with its cancel action.
func (c *Composer) SetReplyTarget(id, author string) {
	c.mu.Lock()
	c.replyToID = id
	c.replyToAuthor = author
	c.mu.Unlock()

	c.view.ShowReplyTarget(author)
}

// ClearReplyTarget cancels the pending reply.
func (c *Composer) ClearReplyTarget() {
	c.mu.Lock()
	c.replyToID = ""
	c.replyToAuthor = ""
	c.mu.Unlock()

	c.view.ClearReplyTarget()
}

// ReplyTarget returns the current reply target, if any.
func (c *Composer) ReplyTarget() (id, author string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replyToID, c.replyToAuthor
}

// OnInputChanged records a keystroke. The first keystroke of a burst
// emits typing-started; every keystroke re-arms the stop debounce.
func (c *Composer) OnInputChanged(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.typing {
		c.typing = true
		c.sender.Send(&wire.TypingSignal{IsTyping: true})
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.stopDelay, c.StopTyping)
}

// StopTyping emits typing-stopped immediately and cancels the debounce.
func (c *Composer) StopTyping() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTypingLocked()
}

// Typing reports whether a typing-started has been announced and not
// yet retracted.
func (c *Composer) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

func (c *Composer) stopTypingLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.typing {
		return
	}
	c.typing = false
	c.sender.Send(&wire.TypingSignal{IsTyping: false})
}
