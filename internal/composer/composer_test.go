package composer

import (
	"sync"
	"testing"
	"time"

	"github.com/christopherjohns/parley/internal/wire"
)

type fakeSender struct {
	mu     sync.Mutex
	open   bool
	frames []wire.Frame
}

func (s *fakeSender) Send(f wire.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return false
	}
	s.frames = append(s.frames, f)
	return true
}

func (s *fakeSender) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *fakeSender) sent() []wire.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.Frame(nil), s.frames...)
}

func (s *fakeSender) typingSignals() []bool {
	var out []bool
	for _, f := range s.sent() {
		if ts, ok := f.(*wire.TypingSignal); ok {
			out = append(out, ts.IsTyping)
		}
	}
	return out
}

type fakeView struct {
	mu           sync.Mutex
	replyAuthor  string
	replyVisible bool
	inputCleared int
}

func (v *fakeView) ShowReplyTarget(author string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.replyAuthor = author
	v.replyVisible = true
}

func (v *fakeView) ClearReplyTarget() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.replyAuthor = ""
	v.replyVisible = false
}

func (v *fakeView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputCleared++
}

func TestSendEmptyDraftIsNoOp(t *testing.T) {
	s := &fakeSender{open: true}
	v := &fakeView{}
	c := New(s, v)
	c.SetReplyTarget("m1", "ann")

	if c.Send("") || c.Send("   \t\n") {
		t.Fatal("empty draft should not send")
	}
	if len(s.sent()) != 0 {
		t.Fatalf("expected no frames, got %d", len(s.sent()))
	}
	if id, _ := c.ReplyTarget(); id != "m1" {
		t.Fatalf("reply target cleared by rejected send: %q", id)
	}
	if v.inputCleared != 0 {
		t.Fatal("input cleared by rejected send")
	}
}

func TestSendWhileClosedIsNoOp(t *testing.T) {
	s := &fakeSender{open: false}
	c := New(s, &fakeView{})
	c.SetReplyTarget("m1", "ann")

	if c.Send("hello") {
		t.Fatal("send should fail while closed")
	}
	if id, _ := c.ReplyTarget(); id != "m1" {
		t.Fatalf("reply target cleared by rejected send: %q", id)
	}
}

func TestSendTrimsAndCarriesReplyTarget(t *testing.T) {
	s := &fakeSender{open: true}
	v := &fakeView{}
	c := New(s, v)
	c.SetReplyTarget("m1", "ann")

	if !c.Send("  hello there  ") {
		t.Fatal("expected send to succeed")
	}

	frames := s.sent()
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	cm, ok := frames[0].(*wire.ChatMessage)
	if !ok {
		t.Fatalf("expected chat message frame, got %T", frames[0])
	}
	if cm.Message != "hello there" || cm.ReplyToID != "m1" {
		t.Fatalf("unexpected frame: %+v", cm)
	}
	if id, _ := c.ReplyTarget(); id != "" {
		t.Fatal("reply target not cleared after send")
	}
	if v.inputCleared != 1 || v.replyVisible {
		t.Fatalf("view not reset: cleared=%d replyVisible=%v", v.inputCleared, v.replyVisible)
	}
}

func TestTypingEmittedOncePerBurst(t *testing.T) {
	s := &fakeSender{open: true}
	c := New(s, &fakeView{}, WithStopDelay(40*time.Millisecond))

	for i := 0; i < 5; i++ {
		c.OnInputChanged("hel")
		time.Sleep(2 * time.Millisecond)
	}

	if got := s.typingSignals(); len(got) != 1 || !got[0] {
		t.Fatalf("expected exactly one typing-started, got %v", got)
	}

	// Stop fires once the debounce elapses with no further input.
	time.Sleep(100 * time.Millisecond)
	got := s.typingSignals()
	if len(got) != 2 || got[1] {
		t.Fatalf("expected a single typing-stopped after the burst, got %v", got)
	}
	if c.Typing() {
		t.Fatal("still marked typing after debounce")
	}
}

func TestSendStopsTypingImmediately(t *testing.T) {
	s := &fakeSender{open: true}
	c := New(s, &fakeView{}, WithStopDelay(50*time.Millisecond))

	c.OnInputChanged("h")
	if !c.Send("hello") {
		t.Fatal("expected send to succeed")
	}

	got := s.typingSignals()
	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Fatalf("expected [start, stop], got %v", got)
	}

	// The debounce timer was cancelled, so no duplicate stop arrives.
	time.Sleep(120 * time.Millisecond)
	if got := s.typingSignals(); len(got) != 2 {
		t.Fatalf("debounce fired after send: %v", got)
	}
}

func TestNewBurstAfterStopRestartsTyping(t *testing.T) {
	s := &fakeSender{open: true}
	c := New(s, &fakeView{}, WithStopDelay(20*time.Millisecond))

	c.OnInputChanged("a")
	time.Sleep(60 * time.Millisecond)
	c.OnInputChanged("b")
	time.Sleep(60 * time.Millisecond)

	got := s.typingSignals()
	if len(got) != 4 {
		t.Fatalf("expected two start/stop pairs, got %v", got)
	}
	for i, want := range []bool{true, false, true, false} {
		if got[i] != want {
			t.Fatalf("signal %d: expected %v, got %v", i, want, got)
		}
	}
}
