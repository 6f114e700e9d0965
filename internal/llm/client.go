package llm

import (
	"context"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is a stateless text-generation gateway. It remembers nothing between
// calls; any conversation context the model should see is injected into the
// messages by the caller.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// GatewayError marks transport-level faults: network errors, provider HTTP
// failures, empty completions. Malformed but present model output is not an
// error here; it comes back as Response.Content for the caller to repair.
type GatewayError struct {
	Provider string
	Status   int
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s gateway error (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s gateway error: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
