package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"bizgraph/internal/decision"
)

// Store is the slice of the graph layer the executor needs.
type Store interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

// Result is the outcome of at most one store call. Executed reports whether
// a call was attempted; Err holds a store-level failure, which is recoverable
// for the turn and never fatal to the process.
type Result struct {
	Rows     []map[string]any
	Executed bool
	Err      error
}

type Executor struct {
	store Store
	log   zerolog.Logger
}

func New(store Store, log zerolog.Logger) *Executor {
	return &Executor{store: store, log: log.With().Str("component", "executor").Logger()}
}

// Execute performs the decision's side effect, if it has one. Side-effect
// intents without a query are a no-op; the caller falls back to the decision
// response or a stock message.
func (e *Executor) Execute(ctx context.Context, d decision.Decision) Result {
	if !d.Intent.RequiresQuery() {
		return Result{}
	}
	query := strings.TrimSpace(d.Query)
	if query == "" {
		e.log.Warn().Str("intent", string(d.Intent)).Msg("side-effect intent without a query, skipping execution")
		return Result{}
	}
	return e.Run(ctx, query, nil)
}

// Run submits one query to the store and collects all rows eagerly. Panics
// are captured into the result so a bad driver value cannot take down the
// turn.
func (e *Executor) Run(ctx context.Context, cypher string, params map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("recovered panic during query execution")
			res = Result{Executed: true, Err: fmt.Errorf("query execution panic: %v", r)}
		}
	}()

	res.Executed = true
	rows, err := e.store.Run(ctx, cypher, params)
	if err != nil {
		e.log.Error().Err(err).Msg("store query failed")
		res.Err = err
		return res
	}
	e.log.Debug().Int("rows", len(rows)).Msg("store query executed")
	res.Rows = rows
	return res
}
