package reaction

import (
	"testing"
	"time"

	"github.com/christopherjohns/parley/internal/ratelimit"
	"github.com/christopherjohns/parley/internal/wire"
)

type fakeSender struct {
	frames []wire.Frame
}

func (s *fakeSender) Send(f wire.Frame) bool {
	s.frames = append(s.frames, f)
	return true
}

type fakeView struct {
	marked map[string]Kind
}

func (v *fakeView) MarkReacted(id string, kind Kind) {
	if v.marked == nil {
		v.marked = make(map[string]Kind)
	}
	v.marked[id] = kind
}

type fakeCounts struct {
	applied map[string][2]int
}

func (c *fakeCounts) ApplyReactionCounts(id string, likes, dislikes int) bool {
	if c.applied == nil {
		c.applied = make(map[string][2]int)
	}
	c.applied[id] = [2]int{likes, dislikes}
	return true
}

func TestReactSendsFrameOnce(t *testing.T) {
	s := &fakeSender{}
	v := &fakeView{}
	c := NewCoordinator(s, v, &fakeCounts{})

	if !c.React("M", KindLike) {
		t.Fatal("first click should react")
	}
	// Repeated clicks before any server response stay local.
	for i := 0; i < 3; i++ {
		if c.React("M", KindLike) {
			t.Fatal("duplicate click should be rejected")
		}
	}

	if len(s.frames) != 1 {
		t.Fatalf("expected exactly 1 outbound frame, got %d", len(s.frames))
	}
	rr, ok := s.frames[0].(*wire.ReactionRequest)
	if !ok {
		t.Fatalf("expected reaction frame, got %T", s.frames[0])
	}
	if rr.Reaction != "like" || rr.MessageID != "M" {
		t.Fatalf("unexpected frame: %+v", rr)
	}
	if v.marked["M"] != KindLike {
		t.Fatalf("control not marked active: %v", v.marked)
	}
}

func TestReactSiblingControlDisabled(t *testing.T) {
	s := &fakeSender{}
	c := NewCoordinator(s, &fakeView{}, &fakeCounts{})

	c.React("M", KindLike)
	if c.React("M", KindDislike) {
		t.Fatal("sibling control should be locked after a reaction")
	}
	if len(s.frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(s.frames))
	}
}

func TestReactDistinctMessagesIndependent(t *testing.T) {
	s := &fakeSender{}
	c := NewCoordinator(s, &fakeView{}, &fakeCounts{})

	c.React("A", KindLike)
	c.React("B", KindDislike)

	if len(s.frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(s.frames))
	}
	if k, _ := c.Reacted("B"); k != KindDislike {
		t.Fatalf("expected dislike recorded for B, got %q", k)
	}
}

func TestReactRejectsUnknownKind(t *testing.T) {
	s := &fakeSender{}
	c := NewCoordinator(s, &fakeView{}, &fakeCounts{})

	if c.React("M", Kind("heart")) {
		t.Fatal("unknown kind should be rejected")
	}
	if len(s.frames) != 0 {
		t.Fatalf("expected no frames, got %d", len(s.frames))
	}
}

func TestApplyUpdateOverwritesCounts(t *testing.T) {
	counts := &fakeCounts{}
	c := NewCoordinator(&fakeSender{}, &fakeView{}, counts)

	c.React("M", KindLike)
	c.ApplyUpdate("M", 7, 2)

	if counts.applied["M"] != [2]int{7, 2} {
		t.Fatalf("expected authoritative counts 7/2, got %v", counts.applied["M"])
	}
}

func TestLimiterCapsOutboundFrames(t *testing.T) {
	s := &fakeSender{}
	c := NewCoordinator(s, &fakeView{}, &fakeCounts{},
		WithLimiter(ratelimit.NewKeyLimiter(2, time.Hour)))

	c.React("A", KindLike)
	c.React("B", KindLike)
	if c.React("C", KindLike) {
		t.Fatal("third reaction in the window should be dropped")
	}

	if len(s.frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(s.frames))
	}
	// The dropped click did not consume the message's lock.
	if _, ok := c.Reacted("C"); ok {
		t.Fatal("rate-limited click should not lock the message")
	}
}
