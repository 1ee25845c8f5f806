package message

import "html"

// DeletedPlaceholder replaces the content of deleted messages.
const DeletedPlaceholder = "message deleted"

// snippetMax bounds the quoted-reply snippet length in runes.
const snippetMax = 80

// ReplyModel is the render form of a quoted reply block.
type ReplyModel struct {
	MessageID string
	Author    string
	Snippet   string
}

// RenderModel is what a Renderer receives. All user-supplied text has
// been escaped and is safe to insert into markup as-is.
type RenderModel struct {
	ID            string
	Author        string
	RoleIcon      string
	Content       string
	Timestamp     string
	ReplyTo       *ReplyModel
	Likes         int
	Dislikes      int
	Own           bool
	AddressedToMe bool
	Deleted       bool
}

// Renderer is the only surface that touches the display. Implementations
// exist for markup targets and the terminal; the store never renders
// directly.
type Renderer interface {
	// ReplaceAll discards everything rendered and rebuilds from the
	// given list, in order.
	ReplaceAll(items []RenderModel)
	// Append adds one message to the end of the rendered list.
	Append(item RenderModel)
	// UpdateContent swaps the content of an already-rendered message.
	UpdateContent(id, content string)
	// MarkDeleted replaces content with the placeholder and applies
	// the struck/italicized deleted style.
	MarkDeleted(id, placeholder string)
	// UpdateReactions overwrites the displayed reaction counts.
	UpdateReactions(id string, likes, dislikes int)
}

func roleIcon(r Role) string {
	switch r {
	case RoleAdmin:
		return "[admin]"
	case RoleModerator:
		return "[mod]"
	default:
		return ""
	}
}

func truncateSnippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetMax {
		return s
	}
	return string(runes[:snippetMax]) + "…"
}

func renderModel(m *Message) RenderModel {
	rm := RenderModel{
		ID:            m.ID,
		Author:        html.EscapeString(m.Author),
		RoleIcon:      roleIcon(m.AuthorRole),
		Content:       html.EscapeString(m.Content),
		Timestamp:     m.CreatedAt.Format("15:04"),
		Likes:         m.Likes,
		Dislikes:      m.Dislikes,
		Own:           m.Own,
		AddressedToMe: m.AddressedToMe,
		Deleted:       m.Deleted,
	}
	if m.Deleted {
		rm.Content = DeletedPlaceholder
	}
	if m.ReplyTo != nil {
		rm.ReplyTo = &ReplyModel{
			MessageID: m.ReplyTo.MessageID,
			Author:    html.EscapeString(m.ReplyTo.Author),
			Snippet:   html.EscapeString(truncateSnippet(m.ReplyTo.Snippet)),
		}
	}
	return rm
}
