package storage

import "time"

// Event is one completed turn: the user's message, what the system decided
// and did, and the reply that went out. Events are appended in completion
// order, which for a single user matches arrival order.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	TurnID      string    `json:"turn_id"`
	UserID      string    `json:"user_id"`
	Message     string    `json:"message"`
	Intent      string    `json:"intent"`
	ToolsUsed   []string  `json:"tools_used,omitempty"`
	Response    string    `json:"response"`
	Error       string    `json:"error,omitempty"`
	Model       string    `json:"model,omitempty"`
	TotalTokens int       `json:"total_tokens,omitempty"`
	Fallback    bool      `json:"fallback,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
}

// Recorder abstracts persistence of turn events.
// Implementations can be file-based, database, etc.
// LoadTurns should return events in chronological order.
// AppendTurn should atomically append a new event.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendTurn(event Event) error
	LoadTurns() ([]Event, error)
}
