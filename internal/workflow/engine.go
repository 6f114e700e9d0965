package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bizgraph/internal/decision"
	"bizgraph/internal/executor"
	"bizgraph/internal/format"
	"bizgraph/internal/graph"
	"bizgraph/internal/llm"
	"bizgraph/internal/memory"
	"bizgraph/internal/observability"
	"bizgraph/internal/storage"
)

// Engine drives one turn through deciding, executing and formatting, and
// owns the per-user queues that serialize turns of the same user.
type Engine struct {
	client llm.Client
	exec   *executor.Executor
	memory memory.Store
	log    zerolog.Logger

	metrics  *observability.Metrics
	recorder storage.Recorder

	contextWindow int
	summaryWindow int
	now           func() time.Time

	mu     sync.Mutex
	queues map[string]chan task
	closed bool
	wg     sync.WaitGroup
}

func NewEngine(client llm.Client, exec *executor.Executor, mem memory.Store, log zerolog.Logger) *Engine {
	return &Engine{
		client:        client,
		exec:          exec,
		memory:        mem,
		log:           log.With().Str("component", "workflow").Logger(),
		contextWindow: memory.DefaultContextWindow,
		summaryWindow: memory.DefaultSummaryWindow,
		now:           time.Now,
		queues:        make(map[string]chan task),
	}
}

// SetMetrics attaches Prometheus instruments. Without it the engine runs
// unmetered.
func (e *Engine) SetMetrics(m *observability.Metrics) {
	e.metrics = m
}

// SetRecorder attaches the audit log for completed turns.
func (e *Engine) SetRecorder(r storage.Recorder) {
	e.recorder = r
}

// SetWindows overrides the history read windows.
func (e *Engine) SetWindows(contextWindow, summaryWindow int) {
	if contextWindow > 0 {
		e.contextWindow = contextWindow
	}
	if summaryWindow > 0 {
		e.summaryWindow = summaryWindow
	}
}

func (e *Engine) processTurn(ctx context.Context, t *Turn) {
	start := e.now()
	log := e.log.With().Str("turn_id", t.ID).Str("user_id", t.UserID).Logger()

	e.decide(ctx, t, log)

	// Terminal guarantee: the worst case is the stock apology, never
	// silence and never a crash.
	if strings.TrimSpace(t.Response) == "" {
		t.Response = decision.Apology
	}
	t.State = StateDone
	t.Duration = e.now().Sub(start)

	if err := e.memory.Append(ctx, t.UserID, memory.RoleUser, t.Message); err != nil {
		log.Warn().Err(err).Msg("failed to append user turn to history")
	}
	if err := e.memory.Append(ctx, t.UserID, memory.RoleAssistant, t.Response); err != nil {
		log.Warn().Err(err).Msg("failed to append assistant turn to history")
	}

	e.record(t)

	evt := log.Info().
		Str("intent", string(t.Intent)).
		Bool("fallback", t.Fallback).
		Int("model_calls", t.ModelCalls).
		Int("store_calls", t.StoreCalls).
		Dur("duration", t.Duration)
	if t.Err != nil {
		evt = evt.AnErr("turn_error", t.Err)
	}
	evt.Msg("✅ turn complete")
}

// decide runs the unified call: one prompt asking for intent, entities,
// query and response at once.
func (e *Engine) decide(ctx context.Context, t *Turn, log zerolog.Logger) {
	t.State = StateDeciding

	history, err := e.memory.RecentContext(ctx, t.UserID, e.contextWindow)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load conversation context")
		history = ""
	}

	resp, err := e.generate(ctx, t, decision.BuildDecisionPrompt(graph.Schema, history, t.Message, e.turnDate(t)))
	if err != nil {
		log.Warn().Err(err).Msg("unified decision call failed, entering fallback")
		e.fallback(ctx, t, log)
		return
	}

	d, err := decision.ExtractStructured(resp.Content)
	if err != nil {
		log.Warn().Err(err).Msg("decision payload unparseable after repair, entering fallback")
		if e.metrics != nil {
			e.metrics.ParseFailures.Inc()
		}
		e.fallback(ctx, t, log)
		return
	}

	t.Decision = d
	t.Intent = d.Intent
	e.execute(ctx, t, log)
}

func (e *Engine) execute(ctx context.Context, t *Turn, log zerolog.Logger) {
	t.State = StateExecuting
	res := e.exec.Execute(ctx, t.Decision)
	if res.Executed {
		t.StoreCalls++
		t.ToolsUsed = append(t.ToolsUsed, string(t.Intent))
		if e.metrics != nil {
			e.metrics.ObserveStoreQuery(res.Err)
		}
	}

	t.State = StateFormatting
	switch {
	case res.Err != nil:
		// Recoverable per-turn failure: the user learns what went wrong.
		t.Err = res.Err
		t.Response = format.ExecutionError(res.Err)
	case res.Executed:
		t.Rows = res.Rows
		t.Response = format.Format(t.Intent, res.Rows, t.Message)
	case t.Decision.Response != "":
		t.Response = t.Decision.Response
	case t.Intent.RequiresQuery():
		// Side-effect intent that arrived without a query.
		t.Response = format.NoData(t.Message)
	default:
		e.chatReply(ctx, t, log)
	}
}

// chatReply phrases a conversational answer, seeded with the short history
// summary. Second and last model call of the primary path.
func (e *Engine) chatReply(ctx context.Context, t *Turn, log zerolog.Logger) {
	summary, err := e.memory.Summary(ctx, t.UserID, e.summaryWindow)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load history summary")
		summary = ""
	}
	resp, err := e.generate(ctx, t, decision.BuildChatPrompt(summary, t.Message))
	if err != nil {
		log.Warn().Err(err).Msg("chat phrasing call failed")
		t.Err = err
		t.Response = decision.Apology
		return
	}
	t.Response = strings.TrimSpace(resp.Content)
	if t.Response == "" {
		t.Response = "Hello! How can I help you today?"
	}
}

func (e *Engine) generate(ctx context.Context, t *Turn, msgs []llm.Message) (llm.Response, error) {
	t.ModelCalls++
	if e.metrics != nil {
		e.metrics.ModelCalls.Inc()
	}
	resp, err := e.client.Generate(ctx, msgs)
	if err != nil {
		return llm.Response{}, err
	}
	t.TotalTokens += resp.TotalTokens
	if resp.Model != "" {
		t.Model = resp.Model
	}
	return resp, nil
}

// turnDate is the reference date for prompts and implied transaction dates.
func (e *Engine) turnDate(t *Turn) time.Time {
	if !t.ReceivedAt.IsZero() {
		return t.ReceivedAt
	}
	return e.now()
}

func (e *Engine) record(t *Turn) {
	if e.metrics != nil {
		e.metrics.ObserveTurn(string(t.Intent), t.Fallback, t.Duration)
	}
	if e.recorder == nil {
		return
	}
	ev := storage.Event{
		Timestamp:   e.now(),
		TurnID:      t.ID,
		UserID:      t.UserID,
		Message:     t.Message,
		Intent:      string(t.Intent),
		ToolsUsed:   t.ToolsUsed,
		Response:    t.Response,
		Model:       t.Model,
		TotalTokens: t.TotalTokens,
		Fallback:    t.Fallback,
		DurationMS:  t.Duration.Milliseconds(),
	}
	if t.Err != nil {
		ev.Error = t.Err.Error()
	}
	if err := e.recorder.AppendTurn(ev); err != nil {
		e.log.Warn().Err(err).Msg("failed to record turn event")
	}
}
