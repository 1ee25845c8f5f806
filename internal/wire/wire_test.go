package wire

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeInjectsTypeTag(t *testing.T) {
	data, err := Encode(&ChatMessage{Message: "hello", ReplyToID: "m1"})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if got["type"] != "message" {
		t.Fatalf("expected type 'message', got %v", got["type"])
	}
	if got["message"] != "hello" {
		t.Fatalf("expected message 'hello', got %v", got["message"])
	}
	if got["reply_to_id"] != "m1" {
		t.Fatalf("expected reply_to_id 'm1', got %v", got["reply_to_id"])
	}
}

func TestEncodeOmitsEmptyReplyTo(t *testing.T) {
	data, err := Encode(&ChatMessage{Message: "hi"})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if _, ok := got["reply_to_id"]; ok {
		t.Fatal("reply_to_id should be omitted when empty")
	}
}

func TestEncodeFetchOnlineUsers(t *testing.T) {
	data, err := Encode(&FetchOnlineUsers{})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if string(data) != `{"type":"fetch_online_users"}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestDecodeDispatchesOnType(t *testing.T) {
	f, err := Decode([]byte(`{"type":"reaction_update","message_id":"m1","likes":7,"dislikes":2}`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	ru, ok := f.(*ReactionUpdate)
	if !ok {
		t.Fatalf("expected *ReactionUpdate, got %T", f)
	}
	if ru.MessageID != "m1" || ru.Likes != 7 || ru.Dislikes != 2 {
		t.Fatalf("unexpected fields: %+v", ru)
	}
}

func TestDecodeNewMessage(t *testing.T) {
	raw := `{"type":"new_message","message":{"id":"42","author":"ann","content":"hi","likes":1}}`
	f, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	nm, ok := f.(*NewMessage)
	if !ok {
		t.Fatalf("expected *NewMessage, got %T", f)
	}
	if nm.Message.ID != "42" || nm.Message.Author != "ann" || nm.Message.Likes != 1 {
		t.Fatalf("unexpected message: %+v", nm.Message)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"server_hug"}`))
	var ute *UnknownTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
	if ute.Type != "server_hug" {
		t.Fatalf("expected type 'server_hug', got %q", ute.Type)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if _, err := Decode([]byte(`{"message":"no tag"}`)); err == nil {
		t.Fatal("expected error for missing type")
	}
}

func TestRoundTripTyping(t *testing.T) {
	data, err := Encode(&TypingSignal{IsTyping: true})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	f, err := Decode(data)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	ts, ok := f.(*TypingSignal)
	if !ok {
		t.Fatalf("expected *TypingSignal, got %T", f)
	}
	if !ts.IsTyping || ts.User != "" {
		t.Fatalf("unexpected typing signal: %+v", ts)
	}
}
