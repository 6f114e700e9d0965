package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"bizgraph/internal/executor"
	"bizgraph/internal/llm"
	"bizgraph/internal/memory"
	"bizgraph/internal/workflow"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	ch   chan tgbotapi.MessageConfig
}

func newFakeSender() *fakeSender {
	return &fakeSender{ch: make(chan tgbotapi.MessageConfig, 8)}
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	mc, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	f.mu.Lock()
	f.sent = append(f.sent, mc)
	f.mu.Unlock()
	f.ch <- mc
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) wait(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	select {
	case mc := <-f.ch:
		return mc
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outgoing message")
		return tgbotapi.MessageConfig{}
	}
}

type scriptedLLM struct{ content string }

func (s scriptedLLM) Generate(context.Context, []llm.Message) (llm.Response, error) {
	return llm.Response{Content: s.content, Model: "test-model"}, nil
}

type nullGraph struct{}

func (nullGraph) Run(context.Context, string, map[string]any) ([]map[string]any, error) {
	return nil, nil
}

func newTestBot(t *testing.T, llmContent string) (*Bot, *fakeSender, memory.Store) {
	t.Helper()
	mem := memory.NewInMemoryStore()
	t.Cleanup(mem.Close)
	engine := workflow.NewEngine(scriptedLLM{content: llmContent}, executor.New(nullGraph{}, zerolog.Nop()), mem, zerolog.Nop())
	t.Cleanup(engine.Close)
	fs := newFakeSender()
	return &Bot{
		s:         fs,
		engine:    engine,
		memory:    mem,
		log:       zerolog.Nop(),
		parseMode: "Markdown",
	}, fs, mem
}

func textMessage(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func commandMessage(userID, chatID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		cmdLen = i
	}
	msg := textMessage(userID, chatID, text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	return msg
}

func TestHandleMessageRepliesThroughEngine(t *testing.T) {
	b, fs, _ := newTestBot(t, `{"intent": "chat", "response": "Hello there!"}`)

	b.handleMessage(context.Background(), textMessage(42, 100, "hi"))

	mc := fs.wait(t)
	if mc.Text != "Hello there!" {
		t.Fatalf("reply = %q, want %q", mc.Text, "Hello there!")
	}
	if mc.ChatID != 100 {
		t.Fatalf("chat id = %d, want 100", mc.ChatID)
	}
}

func TestNonTextMessageGetsPoliteReply(t *testing.T) {
	b, fs, _ := newTestBot(t, `{"intent": "chat", "response": "ignored"}`)

	b.handleMessage(context.Background(), textMessage(42, 100, "   "))

	if got := fs.wait(t).Text; got != nonTextReply {
		t.Fatalf("reply = %q, want %q", got, nonTextReply)
	}
}

func TestStartCommand(t *testing.T) {
	b, fs, _ := newTestBot(t, "")

	b.handleMessage(context.Background(), commandMessage(42, 100, "/start"))

	if got := fs.wait(t).Text; got != startReply {
		t.Fatalf("reply = %q, want %q", got, startReply)
	}
}

func TestResetCommandClearsHistory(t *testing.T) {
	b, fs, mem := newTestBot(t, "")
	ctx := context.Background()
	if err := mem.Append(ctx, "42", "user", "remember me"); err != nil {
		t.Fatalf("append: %v", err)
	}

	b.handleMessage(ctx, commandMessage(42, 100, "/reset"))

	if got := fs.wait(t).Text; got != resetReply {
		t.Fatalf("reply = %q, want %q", got, resetReply)
	}
	history, err := mem.RecentContext(ctx, "42", 10)
	if err != nil {
		t.Fatalf("recent context: %v", err)
	}
	if history != "" {
		t.Fatalf("history survived reset: %q", history)
	}
}

func TestUnknownCommand(t *testing.T) {
	b, fs, _ := newTestBot(t, "")

	b.handleMessage(context.Background(), commandMessage(42, 100, "/frobnicate"))

	if got := fs.wait(t).Text; got != unknownCmdText {
		t.Fatalf("reply = %q, want %q", got, unknownCmdText)
	}
}

func TestReportCommand(t *testing.T) {
	b, fs, _ := newTestBot(t, "")
	digest := "Business digest for 2025-06-01:\n• sale: 2 transactions, ₹500"
	b.SetDigestFunction(func(context.Context) (string, error) { return digest, nil })

	b.handleMessage(context.Background(), commandMessage(42, 100, "/report"))

	if got := fs.wait(t).Text; got != digest {
		t.Fatalf("reply = %q, want digest", got)
	}
}

func TestReportCommandWithoutDigest(t *testing.T) {
	b, fs, _ := newTestBot(t, "")

	b.handleMessage(context.Background(), commandMessage(42, 100, "/report"))

	if got := fs.wait(t).Text; got != reportOffReply {
		t.Fatalf("reply = %q, want %q", got, reportOffReply)
	}
}

func TestReportCommandDigestFailure(t *testing.T) {
	b, fs, _ := newTestBot(t, "")
	b.SetDigestFunction(func(context.Context) (string, error) {
		return "", errors.New("neo4j is down")
	})

	b.handleMessage(context.Background(), commandMessage(42, 100, "/report"))

	if got := fs.wait(t).Text; got != reportErrReply {
		t.Fatalf("reply = %q, want %q", got, reportErrReply)
	}
}

func TestSendDigestDeliversToAdmin(t *testing.T) {
	b, fs, _ := newTestBot(t, "")
	b.adminChatID = 999
	b.SetDigestFunction(func(context.Context) (string, error) { return "digest text", nil })

	if err := b.SendDigest(context.Background()); err != nil {
		t.Fatalf("send digest: %v", err)
	}
	mc := fs.wait(t)
	if mc.ChatID != 999 || mc.Text != "digest text" {
		t.Fatalf("sent to chat %d with %q, want 999 with digest text", mc.ChatID, mc.Text)
	}
}

func TestSendDigestWithoutAdminIsNoop(t *testing.T) {
	b, fs, _ := newTestBot(t, "")
	b.SetDigestFunction(func(context.Context) (string, error) { return "digest text", nil })

	if err := b.SendDigest(context.Background()); err != nil {
		t.Fatalf("send digest: %v", err)
	}
	if n := len(fs.sent); n != 0 {
		t.Fatalf("sent %d messages, want 0", n)
	}
}

type markupRejectingSender struct{ sent []tgbotapi.MessageConfig }

func (f *markupRejectingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	mc := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, mc)
	if mc.ParseMode != "" {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	return tgbotapi.Message{}, nil
}

func TestSendMessageFallsBackToPlainText(t *testing.T) {
	rs := &markupRejectingSender{}
	b := &Bot{s: rs, log: zerolog.Nop(), parseMode: "Markdown"}

	b.sendMessage(7, "**broken")

	if len(rs.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(rs.sent))
	}
	if rs.sent[0].ParseMode != "Markdown" {
		t.Fatalf("first attempt parse mode = %q, want Markdown", rs.sent[0].ParseMode)
	}
	if rs.sent[1].ParseMode != "" {
		t.Fatalf("retry parse mode = %q, want empty", rs.sent[1].ParseMode)
	}
	if rs.sent[1].Text != "**broken" {
		t.Fatalf("retry text = %q, want original", rs.sent[1].Text)
	}
}
