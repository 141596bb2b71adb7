package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/askcup/internal/model"
	"github.com/ppiankov/askcup/internal/page"
)

type stubAsker struct{}

func (stubAsker) Ask(ctx context.Context, q string) (*model.AskResponse, error) {
	return &model.AskResponse{Answer: "ok"}, nil
}

func newPage() *page.QuestionPage {
	return page.New(stubAsker{}, "failed")
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache[int](time.Minute, time.Minute)

	c.Set("a", 1, 0)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}

	c.Set("a", 3, 0)
	if v, _ := c.Get("a"); v != 3 {
		t.Errorf("Set should overwrite, got %d", v)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache[string](time.Minute, time.Minute)
	c.Set("short", "x", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("expected entry to expire")
	}
}

func TestSessionStore_GetOrCreate(t *testing.T) {
	s := NewSessionStore(time.Minute, newPage)

	id, p := s.GetOrCreate("")
	if !ValidSessionID(id) {
		t.Fatalf("invalid session id %q", id)
	}

	id2, p2 := s.GetOrCreate(id)
	if id2 != id || p2 != p {
		t.Error("expected the same session back")
	}

	if s.Len() != 1 {
		t.Errorf("expected 1 session, got %d", s.Len())
	}
}

func TestSessionStore_UnknownOrMalformedID(t *testing.T) {
	s := NewSessionStore(time.Minute, newPage)

	for _, bad := range []string{"not-a-uuid", NewSessionID()} {
		id, p := s.GetOrCreate(bad)
		if id == bad {
			t.Errorf("%q: expected a fresh session id", bad)
		}
		if p == nil {
			t.Errorf("%q: expected a page", bad)
		}
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", s.Len())
	}
}

func TestSessionStore_ExpiryResetsPage(t *testing.T) {
	s := NewSessionStore(50*time.Millisecond, newPage)
	id, p := s.GetOrCreate("")
	p.SetQuestion("Who won the 2022 World Cup final?")

	// The janitor runs at most once a second.
	deadline := time.Now().Add(3 * time.Second)
	for p.Question() != "" && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if p.Question() != "" {
		t.Fatal("expired page should be reset")
	}

	id2, p2 := s.GetOrCreate(id)
	if id2 == id || p2 == p {
		t.Error("expired session should be replaced")
	}
}

func TestValidSessionID(t *testing.T) {
	if !ValidSessionID(NewSessionID()) {
		t.Error("fresh id should be valid")
	}
	if ValidSessionID("../../etc/passwd") {
		t.Error("garbage id should be invalid")
	}
}
