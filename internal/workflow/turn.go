package workflow

import (
	"time"

	"bizgraph/internal/decision"
)

// State tracks where a turn is in its lifecycle. Fallback is reachable from
// every state and never leads back to deciding.
type State string

const (
	StateStart      State = "start"
	StateDeciding   State = "deciding"
	StateExecuting  State = "executing"
	StateFormatting State = "formatting"
	StateFallback   State = "fallback"
	StateDone       State = "done"
)

// Turn is the per-message context. It is created when a message arrives and
// discarded once the reply is out; everything long-lived belongs to the
// conversation store.
type Turn struct {
	ID         string
	UserID     string
	Message    string
	ReceivedAt time.Time

	State     State
	Intent    decision.Intent
	Decision  decision.Decision
	Rows      []map[string]any
	Response  string
	Err       error
	ToolsUsed []string
	Fallback  bool

	ModelCalls  int
	StoreCalls  int
	TotalTokens int
	Model       string
	Duration    time.Duration
}
