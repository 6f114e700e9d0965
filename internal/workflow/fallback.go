package workflow

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"bizgraph/internal/decision"
	"bizgraph/internal/executor"
	"bizgraph/internal/format"
	"bizgraph/internal/graph"
)

const (
	missingProductReply     = "Sorry, I couldn't add the product. Please specify both name and price."
	missingTransactionReply = "Sorry, I couldn't log the transaction. Please mention the amount."
)

// fallback is the secondary path: plain intent detection, then one direct
// route per intent. It never re-enters deciding; every exit is a final
// response, worst case the stock apology.
func (e *Engine) fallback(ctx context.Context, t *Turn, log zerolog.Logger) {
	t.State = StateFallback
	t.Fallback = true

	summary, err := e.memory.Summary(ctx, t.UserID, e.summaryWindow)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load history summary for fallback")
		summary = ""
	}

	resp, err := e.generate(ctx, t, decision.BuildIntentPrompt(summary, t.Message))
	if err != nil {
		log.Error().Err(err).Msg("❌ fallback intent detection failed")
		t.Err = err
		t.Response = decision.Apology
		return
	}

	d, perr := decision.ExtractStructured(resp.Content)
	if perr != nil {
		log.Warn().Err(perr).Msg("fallback intent payload unparseable, using safe default")
		d = decision.SafeDefault()
	}
	t.Intent = d.Intent
	t.Decision = d

	switch d.Intent {
	case decision.IntentGraphQuery:
		e.fallbackGraphQuery(ctx, t, log)
	case decision.IntentAddProduct:
		e.fallbackAddProduct(ctx, t, d.Entities, log)
	case decision.IntentLogTransaction:
		e.fallbackLogTransaction(ctx, t, d.Entities, log)
	default:
		if d.Response != "" {
			t.Response = d.Response
			return
		}
		e.chatReply(ctx, t, log)
	}
}

// fallbackGraphQuery asks the model for Cypher only, then runs it.
func (e *Engine) fallbackGraphQuery(ctx context.Context, t *Turn, log zerolog.Logger) {
	resp, err := e.generate(ctx, t, decision.BuildCypherPrompt(graph.Schema, t.Message))
	if err != nil {
		log.Error().Err(err).Msg("❌ fallback cypher generation failed")
		t.Err = err
		t.Response = decision.Apology
		return
	}
	cypher := decision.ExtractCypher(resp.Content)
	if cypher == "" {
		t.Response = decision.Apology
		return
	}
	e.runQuery(ctx, t, decision.IntentGraphQuery, cypher, nil, "")
}

// fallbackAddProduct writes the product deterministically from extracted
// entities, no model-generated Cypher involved.
func (e *Engine) fallbackAddProduct(ctx context.Context, t *Turn, ents decision.Entities, log zerolog.Logger) {
	cypher, params, err := executor.BuildAddProduct(ents)
	if err != nil {
		log.Warn().Err(err).Msg("add_product entities incomplete")
		t.Response = missingProductReply
		return
	}
	e.runQuery(ctx, t, decision.IntentAddProduct, cypher, params, format.ProductAdded(strings.TrimSpace(ents.Product), ents.Amount))
}

func (e *Engine) fallbackLogTransaction(ctx context.Context, t *Turn, ents decision.Entities, log zerolog.Logger) {
	cypher, params, err := executor.BuildLogTransaction(ents, e.turnDate(t))
	if err != nil {
		log.Warn().Err(err).Msg("log_transaction entities incomplete")
		t.Response = missingTransactionReply
		return
	}
	e.runQuery(ctx, t, decision.IntentLogTransaction, cypher, params, format.TransactionLogged(ents))
}

// runQuery is the shared store leg of the fallback routes: one call, rows
// or a captured error, then deterministic text.
func (e *Engine) runQuery(ctx context.Context, t *Turn, intent decision.Intent, cypher string, params map[string]any, confirmation string) {
	res := e.exec.Run(ctx, cypher, params)
	t.StoreCalls++
	t.ToolsUsed = append(t.ToolsUsed, string(intent))
	if e.metrics != nil {
		e.metrics.ObserveStoreQuery(res.Err)
	}
	if res.Err != nil {
		t.Err = res.Err
		t.Response = format.ExecutionError(res.Err)
		return
	}
	t.Rows = res.Rows
	if confirmation != "" {
		t.Response = confirmation
		return
	}
	t.Response = format.Format(intent, res.Rows, t.Message)
}
