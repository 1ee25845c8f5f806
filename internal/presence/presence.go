// Package presence tracks the online-user panel and the typing
// indicator for one room view.
package presence

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/christopherjohns/parley/internal/message"
	"github.com/christopherjohns/parley/internal/wire"
)

// Sender sends outbound frames. Satisfied by *conn.Manager.
type Sender interface {
	Send(f wire.Frame) bool
}

// View is the presence-panel surface.
type View interface {
	// ReplaceUsers rebuilds the panel from a complete snapshot.
	ReplaceUsers(users []message.PresenceEntry, count int)
	// ShowEmpty renders the explicit nobody-online state.
	ShowEmpty()
	// ShowTyping names the currently-typing remote user.
	ShowTyping(user string)
	// ClearTyping removes the typing line.
	ClearTyping()
}

// Tracker holds the latest presence snapshot and the most recent typing
// signal. Rendering is always driven by a complete snapshot, never a
// merge of snapshots.
type Tracker struct {
	mu     sync.Mutex
	sender Sender
	view   View

	users      []message.PresenceEntry
	count      int
	typingUser string
}

// NewTracker creates a tracker rendering through view and requesting
// refreshes through sender.
func NewTracker(sender Sender, view View) *Tracker {
	return &Tracker{
		sender: sender,
		view:   view,
	}
}

// ApplyPresence replaces the whole panel with a new snapshot.
func (t *Tracker) ApplyPresence(users []message.PresenceEntry, count int) {
	t.mu.Lock()
	t.users = append([]message.PresenceEntry(nil), users...)
	t.count = count
	snapshot := t.users
	t.mu.Unlock()

	if len(snapshot) == 0 {
		t.view.ShowEmpty()
		return
	}
	t.view.ReplaceUsers(snapshot, count)
}

// ApplyTyping shows or clears the typing line. Only the most recent
// signal is held: two users typing at once show only the latest.
func (t *Tracker) ApplyTyping(user string, isTyping bool) {
	t.mu.Lock()
	if isTyping {
		t.typingUser = user
	} else if t.typingUser == user {
		t.typingUser = ""
	} else {
		// A stop for a user we are not showing changes nothing.
		t.mu.Unlock()
		return
	}
	current := t.typingUser
	t.mu.Unlock()

	if current == "" {
		t.view.ClearTyping()
		return
	}
	t.view.ShowTyping(current)
}

// RequestRefresh asks the server for a fresh snapshot. Called on socket
// open and when the view regains visibility, so frames missed while
// backgrounded never leave the panel stale.
func (t *Tracker) RequestRefresh() {
	if !t.sender.Send(&wire.FetchOnlineUsers{}) {
		log.Debug().Msg("presence: refresh request dropped, connection not open")
	}
}

// Online returns the latest snapshot and count.
func (t *Tracker) Online() ([]message.PresenceEntry, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]message.PresenceEntry(nil), t.users...), t.count
}

// TypingUser returns the user currently shown as typing, if any.
func (t *Tracker) TypingUser() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typingUser
}
