package memory

import (
	"context"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Bounded read windows. History is stored unbounded and only ever read
// through these.
const (
	DefaultContextWindow = 10
	DefaultSummaryWindow = 5
)

// TurnRecord is one stored conversation entry.
type TurnRecord struct {
	UserID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store owns per-user conversation history. Append failures are non-fatal to
// the turn being processed: callers log them and continue.
//
// SweepByAge removes turns older than the cutoff and reports removed turns.
// SweepByCapacity evicts whole sessions, least-recently-created first, until
// the session count fits, and reports evicted sessions.
type Store interface {
	Append(ctx context.Context, userID, role, content string) error
	RecentContext(ctx context.Context, userID string, window int) (string, error)
	Summary(ctx context.Context, userID string, window int) (string, error)
	SweepByAge(ctx context.Context, olderThan time.Duration) (int, error)
	SweepByCapacity(ctx context.Context, maxSessions int) (int, error)
	ClearUser(ctx context.Context, userID string) error
	SessionCount(ctx context.Context) (int, error)
	Close()
}

// Transcript renders records as the deterministic "User: …" / "Bot: …" block
// fed to the model, oldest first. Empty history renders as an empty string.
func Transcript(records []TurnRecord) string {
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		if r.Role == RoleAssistant {
			b.WriteString("Bot: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(r.Content)
	}
	return b.String()
}
