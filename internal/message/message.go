package message

import "time"

// Role describes the author's standing in the room and selects the
// icon shown next to their name.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ReplyRef points at the message being replied to. It carries enough
// of the original to render the quoted block without a lookup.
type ReplyRef struct {
	MessageID string `json:"message_id"`
	Author    string `json:"author"`
	Snippet   string `json:"snippet"`
}

// Message is one chat message as the client renders it. The ID is
// server-assigned and stable across edits and deletes.
type Message struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	AuthorRole Role      `json:"author_role,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ReplyTo    *ReplyRef `json:"reply_to,omitempty"`
	Likes      int       `json:"likes"`
	Dislikes   int       `json:"dislikes"`
	Own        bool      `json:"is_own,omitempty"`

	// AddressedToMe highlights messages whose reply target is the
	// local user. Distinct from ReplyTo, which points outward.
	AddressedToMe bool `json:"addressed_to_me,omitempty"`

	// Deleted is client-side state: a deleted message stays in the
	// store with its content replaced by a placeholder.
	Deleted bool `json:"-"`
}

// PresenceEntry is one currently-online user in the room.
type PresenceEntry struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role,omitempty"`
}
