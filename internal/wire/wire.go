// Package wire defines the frame protocol spoken over the room's
// WebSocket connection. Every frame is a flat JSON object tagged by a
// "type" field; Decode dispatches on the tag and Encode injects it.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/christopherjohns/parley/internal/message"
)

// Frame type tags as they appear on the wire.
const (
	TypeMessage          = "message"
	TypeFetchMessages    = "fetch_messages"
	TypeFetchOnlineUsers = "fetch_online_users"
	TypeTyping           = "typing"
	TypeReaction         = "reaction"
	TypeNewMessage       = "new_message"
	TypeMessagesHistory  = "messages_history"
	TypeOnlineUsers      = "online_users"
	TypeUserJoined       = "user_joined"
	TypeUserLeft         = "user_left"
	TypeReactionUpdate   = "reaction_update"
	TypeMessageDeleted   = "message_deleted"
	TypeMessageEdited    = "message_edited"
)

// Reaction kinds accepted by the server.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Frame is one decoded protocol frame. The set of implementations is
// closed; Decode returns *UnknownTypeError for tags outside it.
type Frame interface {
	isFrame()
}

// ChatMessage sends a chat message, optionally as a reply.
type ChatMessage struct {
	Message   string `json:"message"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

// FetchMessages requests one page of history.
type FetchMessages struct {
	Page int `json:"page"`
}

// FetchOnlineUsers requests the current presence snapshot.
type FetchOnlineUsers struct{}

// TypingSignal is sent in both directions: outbound it announces the
// local user's typing state, inbound it names the remote typist.
type TypingSignal struct {
	User     string `json:"user,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

// ReactionRequest reacts to a message.
type ReactionRequest struct {
	Reaction  string `json:"reaction"`
	MessageID string `json:"message_id"`
}

// NewMessage is the live push of one new message.
type NewMessage struct {
	Message message.Message `json:"message"`
}

// MessagesHistory is a full page of history. Receipt triggers a
// wholesale re-render.
type MessagesHistory struct {
	Messages []message.Message `json:"messages"`
}

// OnlineUsers is a complete presence snapshot.
type OnlineUsers struct {
	Users []message.PresenceEntry `json:"users"`
	Count int                     `json:"count"`
}

// UserRef identifies a user in join/leave notices.
type UserRef struct {
	Username string `json:"username"`
}

// UserJoined is informational; it triggers a presence refresh.
type UserJoined struct {
	User UserRef `json:"user"`
}

// UserLeft is informational; it triggers a presence refresh.
type UserLeft struct {
	User UserRef `json:"user"`
}

// ReactionUpdate carries the server's authoritative reaction counts.
type ReactionUpdate struct {
	MessageID string `json:"message_id"`
	Likes     int    `json:"likes"`
	Dislikes  int    `json:"dislikes"`
}

// MessageDeleted marks a message deleted; content is mutated, never removed.
type MessageDeleted struct {
	MessageID string `json:"message_id"`
}

// MessageEdited replaces a message's content in place.
type MessageEdited struct {
	MessageID  string `json:"message_id"`
	NewContent string `json:"new_content"`
}

func (*ChatMessage) isFrame()      {}
func (*FetchMessages) isFrame()    {}
func (*FetchOnlineUsers) isFrame() {}
func (*TypingSignal) isFrame()     {}
func (*ReactionRequest) isFrame()  {}
func (*NewMessage) isFrame()       {}
func (*MessagesHistory) isFrame()  {}
func (*OnlineUsers) isFrame()      {}
func (*UserJoined) isFrame()       {}
func (*UserLeft) isFrame()         {}
func (*ReactionUpdate) isFrame()   {}
func (*MessageDeleted) isFrame()   {}
func (*MessageEdited) isFrame()    {}

// UnknownTypeError reports an inbound frame whose type tag is not part
// of the protocol. Callers log and ignore it.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return "wire: unknown frame type " + strconv.Quote(e.Type)
}

// Encode marshals a frame to its flat tagged JSON form.
func Encode(f Frame) ([]byte, error) {
	switch v := f.(type) {
	case *ChatMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			*ChatMessage
		}{TypeMessage, v})
	case *FetchMessages:
		return json.Marshal(struct {
			Type string `json:"type"`
			*FetchMessages
		}{TypeFetchMessages, v})
	case *FetchOnlineUsers:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{TypeFetchOnlineUsers})
	case *TypingSignal:
		return json.Marshal(struct {
			Type string `json:"type"`
			*TypingSignal
		}{TypeTyping, v})
	case *ReactionRequest:
		return json.Marshal(struct {
			Type string `json:"type"`
			*ReactionRequest
		}{TypeReaction, v})
	case *NewMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			*NewMessage
		}{TypeNewMessage, v})
	case *MessagesHistory:
		return json.Marshal(struct {
			Type string `json:"type"`
			*MessagesHistory
		}{TypeMessagesHistory, v})
	case *OnlineUsers:
		return json.Marshal(struct {
			Type string `json:"type"`
			*OnlineUsers
		}{TypeOnlineUsers, v})
	case *UserJoined:
		return json.Marshal(struct {
			Type string `json:"type"`
			*UserJoined
		}{TypeUserJoined, v})
	case *UserLeft:
		return json.Marshal(struct {
			Type string `json:"type"`
			*UserLeft
		}{TypeUserLeft, v})
	case *ReactionUpdate:
		return json.Marshal(struct {
			Type string `json:"type"`
			*ReactionUpdate
		}{TypeReactionUpdate, v})
	case *MessageDeleted:
		return json.Marshal(struct {
			Type string `json:"type"`
			*MessageDeleted
		}{TypeMessageDeleted, v})
	case *MessageEdited:
		return json.Marshal(struct {
			Type string `json:"type"`
			*MessageEdited
		}{TypeMessageEdited, v})
	default:
		return nil, fmt.Errorf("wire: cannot encode frame %T", f)
	}
}

// Decode parses one inbound frame, dispatching on the type tag.
func Decode(data []byte) (Frame, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("wire: malformed frame: %w", err)
	}

	var f Frame
	switch probe.Type {
	case TypeMessage:
		f = &ChatMessage{}
	case TypeFetchMessages:
		f = &FetchMessages{}
	case TypeFetchOnlineUsers:
		f = &FetchOnlineUsers{}
	case TypeTyping:
		f = &TypingSignal{}
	case TypeReaction:
		f = &ReactionRequest{}
	case TypeNewMessage:
		f = &NewMessage{}
	case TypeMessagesHistory:
		f = &MessagesHistory{}
	case TypeOnlineUsers:
		f = &OnlineUsers{}
	case TypeUserJoined:
		f = &UserJoined{}
	case TypeUserLeft:
		f = &UserLeft{}
	case TypeReactionUpdate:
		f = &ReactionUpdate{}
	case TypeMessageDeleted:
		f = &MessageDeleted{}
	case TypeMessageEdited:
		f = &MessageEdited{}
	case "":
		return nil, errors.New("wire: frame missing type")
	default:
		return nil, &UnknownTypeError{Type: probe.Type}
	}

	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("wire: malformed %s frame: %w", probe.Type, err)
	}
	return f, nil
}
