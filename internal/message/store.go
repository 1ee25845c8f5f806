package message

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Store keeps the ordered list of messages visible in the room view and
// drives the Renderer through its narrow mutation API. Messages are
// displayed in the order the server provides them; the store never
// re-sorts. A deleted message is mutated in place, never removed.
type Store struct {
	mu       sync.Mutex
	renderer Renderer
	self     string
	ordered  []*Message
	index    map[string]*Message
}

// NewStore creates a store rendering through renderer. self is the
// local username, used to flag own messages and incoming replies.
func NewStore(renderer Renderer, self string) *Store {
	return &Store{
		renderer: renderer,
		self:     self,
		index:    make(map[string]*Message),
	}
}

// annotate fills in the flags the server leaves to the client.
func (s *Store) annotate(m *Message) {
	if m.Author == s.self {
		m.Own = true
	}
	if m.ReplyTo != nil && m.ReplyTo.Author == s.self {
		m.AddressedToMe = true
	}
}

// ReplaceHistory discards the current list and rebuilds it from one
// history page. Full replacement on every fetch is deliberate: it is
// what keeps the rendered list free of duplicates after a reconnect.
func (s *Store) ReplaceHistory(msgs []Message) {
	s.mu.Lock()
	s.ordered = make([]*Message, 0, len(msgs))
	s.index = make(map[string]*Message, len(msgs))
	models := make([]RenderModel, 0, len(msgs))
	for i := range msgs {
		m := msgs[i]
		s.annotate(&m)
		s.ordered = append(s.ordered, &m)
		s.index[m.ID] = &m
		models = append(models, renderModel(&m))
	}
	s.mu.Unlock()

	s.renderer.ReplaceAll(models)
}

// AppendLive adds one pushed message to the end of the list.
func (s *Store) AppendLive(msg Message) {
	s.mu.Lock()
	s.annotate(&msg)
	s.ordered = append(s.ordered, &msg)
	s.index[msg.ID] = &msg
	model := renderModel(&msg)
	s.mu.Unlock()

	s.renderer.Append(model)
}

// ApplyEdit replaces the content of an existing message. A miss means
// the message is not currently loaded; that is a silent no-op.
func (s *Store) ApplyEdit(id, newContent string) bool {
	s.mu.Lock()
	m, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		log.Debug().Str("id", id).Msg("store: edit for unloaded message")
		return false
	}
	m.Content = newContent
	model := renderModel(m)
	s.mu.Unlock()

	s.renderer.UpdateContent(id, model.Content)
	return true
}

// ApplyDelete marks a message deleted and swaps its content for the
// placeholder. The entry stays in the store.
func (s *Store) ApplyDelete(id string) bool {
	s.mu.Lock()
	m, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		log.Debug().Str("id", id).Msg("store: delete for unloaded message")
		return false
	}
	m.Deleted = true
	m.Content = ""
	s.mu.Unlock()

	s.renderer.MarkDeleted(id, DeletedPlaceholder)
	return true
}

// ApplyReactionCounts overwrites the stored and displayed counts with
// the server's authoritative values.
func (s *Store) ApplyReactionCounts(id string, likes, dislikes int) bool {
	s.mu.Lock()
	m, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		log.Debug().Str("id", id).Msg("store: reaction counts for unloaded message")
		return false
	}
	m.Likes = likes
	m.Dislikes = dislikes
	s.mu.Unlock()

	s.renderer.UpdateReactions(id, likes, dislikes)
	return true
}

// Get returns a copy of the message with the given ID.
func (s *Store) Get(id string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return *m, true
}

// Messages returns a copy of the current list in display order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, 0, len(s.ordered))
	for _, m := range s.ordered {
		out = append(out, *m)
	}
	return out
}

// Len returns the number of stored messages, deleted ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ordered)
}
