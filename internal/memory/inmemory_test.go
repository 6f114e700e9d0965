package memory

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore() (*InMemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := NewInMemoryStore()
	s.now = clock.now
	return s, clock
}

func TestTranscriptFormat(t *testing.T) {
	records := []TurnRecord{
		{Role: RoleUser, Content: "add product Ortho Kit for 1500"},
		{Role: RoleAssistant, Content: "Done."},
		{Role: RoleUser, Content: "what products do I have?"},
	}
	want := "User: add product Ortho Kit for 1500\nBot: Done.\nUser: what products do I have?"
	if got := Transcript(records); got != want {
		t.Fatalf("unexpected transcript:\n%q\nwant:\n%q", got, want)
	}
}

func TestTranscriptEmpty(t *testing.T) {
	if got := Transcript(nil); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
}

func TestRecentContextWindow(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if err := s.Append(ctx, "u1", RoleUser, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	got, err := s.RecentContext(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("recent context failed: %v", err)
	}
	want := "User: message 4\nUser: message 5\nUser: message 6"
	if got != want {
		t.Fatalf("unexpected window:\n%q\nwant:\n%q", got, want)
	}
}

func TestRecentContextNoHistory(t *testing.T) {
	s, _ := newTestStore()
	got, err := s.RecentContext(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("recent context failed: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestSummaryUsesSmallerWindow(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if err := s.Append(ctx, "u1", role, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	summary, err := s.Summary(ctx, "u1", DefaultSummaryWindow)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	want := "Bot: turn 5\nUser: turn 6\nBot: turn 7\nUser: turn 8\nBot: turn 9"
	if summary != want {
		t.Fatalf("unexpected summary:\n%q\nwant:\n%q", summary, want)
	}
}

func TestSweepByCapacityEvictsOldestSessionsFirst(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, fmt.Sprintf("user-%d", i), RoleUser, "hello"); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	evicted, err := s.SweepByCapacity(ctx, 3)
	if err != nil {
		t.Fatalf("capacity sweep failed: %v", err)
	}
	if evicted != 2 {
		t.Fatalf("expected 2 evicted sessions, got %d", evicted)
	}

	// The two oldest-created sessions are gone, the rest intact.
	for i := 0; i < 2; i++ {
		got, _ := s.RecentContext(ctx, fmt.Sprintf("user-%d", i), 10)
		if got != "" {
			t.Errorf("user-%d should be evicted, still has %q", i, got)
		}
	}
	for i := 2; i < 5; i++ {
		got, _ := s.RecentContext(ctx, fmt.Sprintf("user-%d", i), 10)
		if got == "" {
			t.Errorf("user-%d should survive eviction", i)
		}
	}
}

func TestSweepByCapacityUnderLimitIsNoop(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	_ = s.Append(ctx, "u1", RoleUser, "hi")
	evicted, err := s.SweepByCapacity(ctx, 10)
	if err != nil {
		t.Fatalf("capacity sweep failed: %v", err)
	}
	if evicted != 0 {
		t.Fatalf("expected no evictions, got %d", evicted)
	}
}

func TestSweepByAgeRemovesOldTurns(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	_ = s.Append(ctx, "u1", RoleUser, "old message")
	_ = s.Append(ctx, "u2", RoleUser, "also old")

	// Jump the clock a month ahead, then add fresh history for u1.
	clock.t = clock.t.Add(31 * 24 * time.Hour)
	_ = s.Append(ctx, "u1", RoleUser, "fresh message")

	removed, err := s.SweepByAge(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("age sweep failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed turns, got %d", removed)
	}

	got, _ := s.RecentContext(ctx, "u1", 10)
	if got != "User: fresh message" {
		t.Fatalf("unexpected surviving history: %q", got)
	}

	// u2 had nothing left, so the session disappears entirely.
	n, _ := s.SessionCount(ctx)
	if n != 1 {
		t.Fatalf("expected 1 session after sweep, got %d", n)
	}
}

func TestClearUser(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	_ = s.Append(ctx, "u1", RoleUser, "hi")
	_ = s.Append(ctx, "u2", RoleUser, "hi")

	if err := s.ClearUser(ctx, "u1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if got, _ := s.RecentContext(ctx, "u1", 10); got != "" {
		t.Fatalf("u1 history should be gone, got %q", got)
	}
	if got, _ := s.RecentContext(ctx, "u2", 10); got == "" {
		t.Fatal("u2 history should be untouched")
	}
}
