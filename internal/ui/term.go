// Package ui renders the room view to a terminal. It implements every
// view interface the client core draws through; a terminal cannot
// mutate lines it already printed, so edits, deletes and reaction
// updates appear as follow-up notices.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/christopherjohns/parley/internal/message"
	"github.com/christopherjohns/parley/internal/reaction"
)

// Terminal writes the room view to w. Safe for concurrent use; the
// dispatch loop and the input loop both render through it.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal creates a terminal view writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format+"\n", args...)
}

func formatLine(m message.RenderModel) string {
	var b strings.Builder
	if m.ReplyTo != nil {
		fmt.Fprintf(&b, "  > %s: %s\n", m.ReplyTo.Author, m.ReplyTo.Snippet)
	}
	fmt.Fprintf(&b, "[%s] ", m.Timestamp)
	if m.RoleIcon != "" {
		b.WriteString(m.RoleIcon + " ")
	}
	b.WriteString(m.Author)
	if m.Own {
		b.WriteString(" (you)")
	}
	b.WriteString(": " + m.Content)
	if m.Deleted {
		b.WriteString(" (deleted)")
	}
	if m.AddressedToMe {
		b.WriteString("  <- reply to you")
	}
	return b.String()
}

func (t *Terminal) ReplaceAll(items []message.RenderModel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "--- %d messages ---\n", len(items))
	for _, m := range items {
		fmt.Fprintln(t.w, formatLine(m))
	}
}

func (t *Terminal) Append(item message.RenderModel) {
	t.printf("%s", formatLine(item))
}

func (t *Terminal) UpdateContent(id, content string) {
	t.printf("(edited) %s: %s", id, content)
}

func (t *Terminal) MarkDeleted(id, placeholder string) {
	t.printf("(%s) %s", placeholder, id)
}

func (t *Terminal) UpdateReactions(id string, likes, dislikes int) {
	t.printf("reactions on %s: +%d / -%d", id, likes, dislikes)
}

func (t *Terminal) ReplaceUsers(users []message.PresenceEntry, count int) {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.DisplayName)
	}
	t.printf("online (%d): %s", count, strings.Join(names, ", "))
}

func (t *Terminal) ShowEmpty() {
	t.printf("online (0): nobody here")
}

func (t *Terminal) ShowTyping(user string) {
	t.printf("%s is typing...", user)
}

func (t *Terminal) ClearTyping() {}

func (t *Terminal) ShowReplyTarget(author string) {
	t.printf("replying to %s (/cancel to stop)", author)
}

func (t *Terminal) ClearReplyTarget() {}

func (t *Terminal) ClearInput() {}

func (t *Terminal) MarkReacted(id string, kind reaction.Kind) {
	t.printf("you reacted to %s: %s", id, kind)
}

func (t *Terminal) SetConnectionState(state string) {
	t.printf("* %s", state)
}

func (t *Terminal) SetCounts(unread, total int) {
	t.printf("notifications: %d unread of %d", unread, total)
}

func (t *Terminal) ShowError(msg string) {
	t.printf("! %s", msg)
}
