package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bizgraph/internal/config"
	"bizgraph/internal/executor"
	"bizgraph/internal/format"
	"bizgraph/internal/graph"
	"bizgraph/internal/httpapi"
	"bizgraph/internal/llm"
	"bizgraph/internal/logger"
	"bizgraph/internal/memory"
	"bizgraph/internal/observability"
	"bizgraph/internal/scheduler"
	"bizgraph/internal/storage"
	"bizgraph/internal/telegram"
	"bizgraph/internal/workflow"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		stdlog.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem, err := memory.NewStore(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to init conversation store")
	}
	defer mem.Close()

	graphStore, err := graph.NewNeo4j(ctx, graph.Options{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
		Timeout:  cfg.StoreTimeout,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to connect to neo4j")
	}
	defer func() { _ = graphStore.Close(context.Background()) }()

	if err := graphStore.EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️ failed to ensure graph schema")
	}

	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	sweep := func(ctx context.Context) error {
		removed, err := mem.SweepByAge(ctx, retention)
		if err != nil {
			return err
		}
		evicted, err := mem.SweepByCapacity(ctx, cfg.MaxSessions)
		if err != nil {
			return err
		}
		metrics.SweptTurns.Add(float64(removed))
		metrics.EvictedSessions.Add(float64(evicted))
		if n, err := mem.SessionCount(ctx); err == nil {
			metrics.ActiveSessions.Set(float64(n))
		}
		if removed > 0 || evicted > 0 {
			log.Info().Int("turns", removed).Int("sessions", evicted).Msg("🧹 memory sweep complete")
		}
		return nil
	}
	if err := sweep(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️ startup sweep failed")
	}

	factory := llm.NewFactory(cfg)
	client, err := factory.CreateClient(ctx, string(cfg.LLMProvider), modelFor(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to create llm client")
	}

	exec := executor.New(graphStore, log)
	engine := workflow.NewEngine(llm.WithRetry(client, cfg.LLMTimeout), exec, mem, log)
	engine.SetMetrics(metrics)
	engine.SetWindows(cfg.ContextWindow, cfg.SummaryWindow)
	defer engine.Close()

	var rec storage.Recorder
	if cfg.AuditLogPath != "" {
		fr, err := storage.NewFileRecorder(cfg.AuditLogPath)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ failed to init audit recorder")
		} else {
			rec = fr
			engine.SetRecorder(fr)
		}
	}

	bot, err := telegram.New(cfg.TelegramBotToken, cfg.MessageParseMode, cfg.AdminChatID, engine, mem, log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to create telegram bot")
	}
	bot.SetDigestFunction(func(ctx context.Context) (string, error) {
		day := time.Now().UTC()
		rows, err := graphStore.Run(ctx, graph.QueryDailyDigest, map[string]any{"date": day.Format("2006-01-02")})
		if err != nil {
			return "", err
		}
		return format.DailyDigest(day, rows), nil
	})

	sched := scheduler.New(cfg.RetentionCron, cfg.DigestCron, log)
	sched.SetSweepFunction(sweep)
	if cfg.AdminChatID != 0 {
		sched.SetDigestFunction(bot.SendDigest)
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("❌ failed to start scheduler")
	}
	defer sched.Stop()

	ops := httpapi.New(cfg.MetricsAddr, mem, rec, log)
	go func() {
		if err := ops.Run(ctx); err != nil {
			log.Error().Err(err).Msg("❌ ops server failed")
		}
	}()

	log.Info().Str("provider", string(cfg.LLMProvider)).Msg("🚀 bot started")
	bot.Start(ctx)
	log.Info().Msg("shutting down")
}

func modelFor(cfg *config.Config) string {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return cfg.OpenAIModel
	case config.ProviderYandex:
		return ""
	default:
		return cfg.GeminiModel
	}
}
