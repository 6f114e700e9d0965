package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"bizgraph/internal/storage"
)

// DailyStats aggregates one day of audit events.
type DailyStats struct {
	Date          string               `json:"date"`
	TotalTurns    int                  `json:"total_turns"`
	UniqueUsers   int                  `json:"unique_users"`
	FallbackTurns int                  `json:"fallback_turns"`
	FailedTurns   int                  `json:"failed_turns"`
	TotalTokens   int                  `json:"total_tokens"`
	IntentCounts  map[string]int       `json:"intent_counts"`
	UserStats     map[string]UserStats `json:"user_stats"`
}

// UserStats holds per-user activity for the day.
type UserStats struct {
	UserID    string         `json:"user_id"`
	Turns     int            `json:"turns"`
	Fallbacks int            `json:"fallbacks"`
	Intents   map[string]int `json:"intents"`
}

// AnalyzeDailyEvents filters events down to the target day and aggregates
// them. Events without a user message are skipped.
func AnalyzeDailyEvents(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		IntentCounts: make(map[string]int),
		UserStats:    make(map[string]UserStats),
	}

	uniqueUsers := make(map[string]bool)

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.Message == "" {
			continue
		}

		stats.TotalTurns++
		stats.TotalTokens += event.TotalTokens
		uniqueUsers[event.UserID] = true

		if event.Intent != "" {
			stats.IntentCounts[event.Intent]++
		}
		if event.Fallback {
			stats.FallbackTurns++
		}
		if event.Error != "" {
			stats.FailedTurns++
		}

		userStat, exists := stats.UserStats[event.UserID]
		if !exists {
			userStat = UserStats{
				UserID:  event.UserID,
				Intents: make(map[string]int),
			}
		}
		userStat.Turns++
		if event.Fallback {
			userStat.Fallbacks++
		}
		if event.Intent != "" {
			userStat.Intents[event.Intent]++
		}
		stats.UserStats[event.UserID] = userStat
	}

	stats.UniqueUsers = len(uniqueUsers)
	return stats
}

// GenerateReportSummary renders the stats as a plain-text admin report.
// Sections are sorted so repeated runs over the same events match exactly.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, `Usage for %s:

Overall:
- Turns: %d
- Unique users: %d
- Fallback turns: %d
- Failed turns: %d
- Tokens used: %d

`, ds.Date, ds.TotalTurns, ds.UniqueUsers, ds.FallbackTurns, ds.FailedTurns, ds.TotalTokens)

	if len(ds.IntentCounts) > 0 {
		b.WriteString("Intents:\n")
		for _, intent := range sortedKeys(ds.IntentCounts) {
			fmt.Fprintf(&b, "- %s: %d\n", intent, ds.IntentCounts[intent])
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User activity (%d users):\n", len(ds.UserStats))
	userIDs := make([]string, 0, len(ds.UserStats))
	for id := range ds.UserStats {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)
	for _, id := range userIDs {
		userStat := ds.UserStats[id]
		fmt.Fprintf(&b, "- User %s: %d turns", id, userStat.Turns)
		if userStat.Fallbacks > 0 {
			fmt.Fprintf(&b, ", %d fallbacks", userStat.Fallbacks)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ToJSON serializes the stats for machine consumers.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
