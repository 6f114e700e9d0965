package decision

import "strings"

// Intent is the classification tag the model assigns to a turn.
type Intent string

const (
	IntentGraphQuery     Intent = "graph_query"
	IntentAddProduct     Intent = "add_product"
	IntentLogTransaction Intent = "log_transaction"
	IntentChat           Intent = "chat"
	IntentQA             Intent = "qa"
	IntentAnswerQuestion Intent = "answer_question"
)

// ParseIntent normalizes a model-emitted tag. Matching is case-insensitive
// and whitespace-tolerant; anything unrecognized is a classification miss
// and degrades to chat instead of failing the turn.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentGraphQuery:
		return IntentGraphQuery
	case IntentAddProduct:
		return IntentAddProduct
	case IntentLogTransaction:
		return IntentLogTransaction
	case IntentQA:
		return IntentQA
	case IntentAnswerQuestion:
		return IntentAnswerQuestion
	default:
		return IntentChat
	}
}

// RequiresQuery reports whether the intent carries a store side effect.
func (i Intent) RequiresQuery() bool {
	switch i {
	case IntentGraphQuery, IntentAddProduct, IntentLogTransaction:
		return true
	default:
		return false
	}
}
