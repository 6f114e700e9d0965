package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"bizgraph/internal/memory"
	"bizgraph/internal/workflow"
)

// sender abstracts the Telegram API for tests.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.api.Send(c)
}

const (
	startReply = "Hi! I'm your business assistant. Tell me about products, purchases and sales, or ask me anything about your business."
	resetReply = "Context cleared. Let's start over!"

	nonTextReply   = "I can only read text messages right now."
	resetFailReply = "Sorry, I couldn't clear the conversation. Please try again."
	reportOffReply = "Reports are not configured."
	reportErrReply = "Sorry, I couldn't build the report. Please try again."
	unknownCmdText = "Unknown command. Try /start, /reset or /report."
)

type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	engine      *workflow.Engine
	memory      memory.Store
	log         zerolog.Logger
	parseMode   string
	adminChatID int64
	digestFunc  func(ctx context.Context) (string, error)
}

func New(botToken, parseMode string, adminChatID int64, engine *workflow.Engine, mem memory.Store, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	l := log.With().Str("component", "telegram").Logger()
	l.Info().Str("username", api.Self.UserName).Msg("✅ authorized on Telegram")
	return &Bot{
		api:         api,
		s:           botAPISender{api: api},
		engine:      engine,
		memory:      mem,
		log:         l,
		parseMode:   parseMode,
		adminChatID: adminChatID,
	}, nil
}

// SetDigestFunction wires the report generator used by /report and SendDigest.
func (b *Bot) SetDigestFunction(f func(ctx context.Context) (string, error)) {
	b.digestFunc = f
}

// Start consumes updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.sendMessage(msg.Chat.ID, nonTextReply)
		return
	}

	b.log.Info().
		Int64("user_id", msg.From.ID).
		Str("username", msg.From.UserName).
		Msg("incoming message")

	chatID := msg.Chat.ID
	userID := strconv.FormatInt(msg.From.ID, 10)
	b.engine.Submit(ctx, userID, text, time.Now().UTC(), func(t *workflow.Turn) {
		b.sendMessage(chatID, t.Response)
	})
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, startReply)
	case "reset":
		userID := strconv.FormatInt(msg.From.ID, 10)
		if err := b.memory.ClearUser(ctx, userID); err != nil {
			b.log.Error().Err(err).Str("user_id", userID).Msg("❌ failed to clear history")
			b.sendMessage(msg.Chat.ID, resetFailReply)
			return
		}
		b.sendMessage(msg.Chat.ID, resetReply)
	case "report":
		b.handleReport(ctx, msg.Chat.ID)
	default:
		b.sendMessage(msg.Chat.ID, unknownCmdText)
	}
}

func (b *Bot) handleReport(ctx context.Context, chatID int64) {
	if b.digestFunc == nil {
		b.sendMessage(chatID, reportOffReply)
		return
	}
	text, err := b.digestFunc(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("❌ digest generation failed")
		b.sendMessage(chatID, reportErrReply)
		return
	}
	b.sendMessage(chatID, text)
}

// SendDigest delivers the daily digest to the admin chat. Used as the
// scheduler's digest job.
func (b *Bot) SendDigest(ctx context.Context) error {
	if b.digestFunc == nil || b.adminChatID == 0 {
		return nil
	}
	text, err := b.digestFunc(ctx)
	if err != nil {
		return err
	}
	b.sendMessage(b.adminChatID, text)
	return nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = b.parseMode
	_, err := b.s.Send(out)
	if err == nil {
		return
	}
	if b.parseMode != "" {
		// Telegram rejects unbalanced markup; retry as plain text.
		plain := tgbotapi.NewMessage(chatID, text)
		if _, retryErr := b.s.Send(plain); retryErr == nil {
			return
		}
	}
	b.log.Error().Err(err).Int64("chat_id", chatID).Msg("❌ failed to send message")
}
