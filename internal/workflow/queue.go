package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bizgraph/internal/decision"
)

// Per-user queue depth. A full queue rejects instead of blocking the intake
// loop, so one flooding user cannot stall everyone else's messages.
const taskQueueSize = 16

const busyReply = "I'm still working on your previous messages. Please try again in a moment."

type task struct {
	ctx   context.Context
	turn  *Turn
	reply func(*Turn)
}

// Submit enqueues one message on its user's queue and returns immediately.
// Turns of the same user run strictly in arrival order; different users
// proceed in parallel. The reply callback fires once the turn is done.
func (e *Engine) Submit(ctx context.Context, userID, message string, receivedAt time.Time, reply func(*Turn)) {
	t := &Turn{
		ID:         uuid.NewString(),
		UserID:     userID,
		Message:    message,
		ReceivedAt: receivedAt,
		State:      StateStart,
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.finishRejected(t, decision.Apology, reply)
		return
	}
	q, ok := e.queues[userID]
	if !ok {
		q = make(chan task, taskQueueSize)
		e.queues[userID] = q
		e.wg.Add(1)
		go e.worker(q)
	}
	// Send while holding the lock; Close also holds it, so a task can
	// never race a channel close.
	select {
	case q <- task{ctx: ctx, turn: t, reply: reply}:
		e.mu.Unlock()
	default:
		e.mu.Unlock()
		e.log.Warn().Str("user_id", userID).Msg("per-user queue full, rejecting message")
		e.finishRejected(t, busyReply, reply)
	}
}

// Process is the synchronous form of Submit: it waits for the turn to
// complete and returns it.
func (e *Engine) Process(ctx context.Context, userID, message string, receivedAt time.Time) *Turn {
	done := make(chan *Turn, 1)
	e.Submit(ctx, userID, message, receivedAt, func(t *Turn) { done <- t })
	return <-done
}

func (e *Engine) worker(q chan task) {
	defer e.wg.Done()
	for tk := range q {
		e.processTurn(tk.ctx, tk.turn)
		if tk.reply != nil {
			tk.reply(tk.turn)
		}
	}
}

func (e *Engine) finishRejected(t *Turn, response string, reply func(*Turn)) {
	t.Response = response
	t.State = StateDone
	if reply != nil {
		reply(t)
	}
}

// Close stops accepting new messages, drains every queue and waits for
// in-flight turns to finish.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, q := range e.queues {
		close(q)
	}
	e.mu.Unlock()
	e.wg.Wait()
}
