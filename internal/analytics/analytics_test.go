package analytics

import (
	"strings"
	"testing"
	"time"

	"bizgraph/internal/storage"
)

func TestAnalyzeDailyEvents(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{
			Timestamp:   day.Add(2 * time.Hour),
			UserID:      "42",
			Message:     "add ortho kit for 1500",
			Intent:      "add_product",
			Response:    "Product 'Ortho Kit' added with price ₹1500.",
			TotalTokens: 120,
		},
		{
			Timestamp:   day.Add(4 * time.Hour),
			UserID:      "42",
			Message:     "what do I sell?",
			Intent:      "graph_query",
			Response:    "• Ortho Kit — ₹1500",
			TotalTokens: 80,
			Fallback:    true,
		},
		{
			Timestamp:   day.Add(6 * time.Hour),
			UserID:      "77",
			Message:     "hello",
			Intent:      "chat",
			Response:    "Hi!",
			TotalTokens: 40,
			Error:       "gateway timeout",
			Fallback:    true,
		},
		// Next day, must not be counted.
		{
			Timestamp: day.AddDate(0, 0, 1),
			UserID:    "99",
			Message:   "tomorrow",
			Intent:    "chat",
		},
		// No user message, must not be counted.
		{
			Timestamp: day.Add(8 * time.Hour),
			UserID:    "42",
			Response:  "Business digest for 2025-06-01: no transactions recorded.",
		},
	}

	stats := AnalyzeDailyEvents(events, day)

	if stats.Date != "2025-06-01" {
		t.Errorf("date = %q, want 2025-06-01", stats.Date)
	}
	if stats.TotalTurns != 3 {
		t.Errorf("total turns = %d, want 3", stats.TotalTurns)
	}
	if stats.UniqueUsers != 2 {
		t.Errorf("unique users = %d, want 2", stats.UniqueUsers)
	}
	if stats.FallbackTurns != 2 {
		t.Errorf("fallback turns = %d, want 2", stats.FallbackTurns)
	}
	if stats.FailedTurns != 1 {
		t.Errorf("failed turns = %d, want 1", stats.FailedTurns)
	}
	if stats.TotalTokens != 240 {
		t.Errorf("total tokens = %d, want 240", stats.TotalTokens)
	}
	if stats.IntentCounts["add_product"] != 1 || stats.IntentCounts["graph_query"] != 1 || stats.IntentCounts["chat"] != 1 {
		t.Errorf("intent counts = %v", stats.IntentCounts)
	}

	u42 := stats.UserStats["42"]
	if u42.Turns != 2 || u42.Fallbacks != 1 {
		t.Errorf("user 42 stats = %+v", u42)
	}
	if u42.Intents["add_product"] != 1 {
		t.Errorf("user 42 intents = %v", u42.Intents)
	}
}

func TestGenerateReportSummaryIsDeterministic(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events := []storage.Event{
		{Timestamp: day.Add(time.Hour), UserID: "b", Message: "x", Intent: "chat"},
		{Timestamp: day.Add(time.Hour), UserID: "a", Message: "y", Intent: "graph_query"},
		{Timestamp: day.Add(time.Hour), UserID: "a", Message: "z", Intent: "add_product"},
	}

	first := AnalyzeDailyEvents(events, day).GenerateReportSummary()
	for i := 0; i < 10; i++ {
		if got := AnalyzeDailyEvents(events, day).GenerateReportSummary(); got != first {
			t.Fatalf("summary changed between runs:\n%s\n---\n%s", first, got)
		}
	}

	if !strings.Contains(first, "Usage for 2025-06-01") {
		t.Errorf("missing header: %q", first)
	}
	if !strings.Contains(first, "- add_product: 1") {
		t.Errorf("missing intent line: %q", first)
	}
	if !strings.Contains(first, "- User a: 2 turns") {
		t.Errorf("missing user line: %q", first)
	}
}

func TestAnalyzeDailyEventsEmpty(t *testing.T) {
	stats := AnalyzeDailyEvents(nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	if stats.TotalTurns != 0 || stats.UniqueUsers != 0 {
		t.Fatalf("stats = %+v, want zeroes", stats)
	}
	if _, err := stats.ToJSON(); err != nil {
		t.Fatalf("to json: %v", err)
	}
}
