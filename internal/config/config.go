package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	AdminChatID      int64  `env:"ADMIN_CHAT_ID"`

	// LLM settings
	LLMProvider      LLMProvider   `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	GeminiModel      string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Graph store
	Neo4jURI      string        `env:"NEO4J_URI" envDefault:"bolt://localhost:7687"`
	Neo4jUser     string        `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPassword string        `env:"NEO4J_PASSWORD" envDefault:"changeme123"`
	Neo4jDatabase string        `env:"NEO4J_DATABASE" envDefault:"neo4j"`
	StoreTimeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"30s"`

	// Conversation store. Empty DATABASE_URL keeps history in memory.
	DatabaseURL   string `env:"DATABASE_URL"`
	ContextWindow int    `env:"CONTEXT_WINDOW" envDefault:"10"`
	SummaryWindow int    `env:"SUMMARY_WINDOW" envDefault:"5"`

	// Retention
	RetentionDays int    `env:"RETENTION_DAYS" envDefault:"30"`
	MaxSessions   int    `env:"MAX_SESSIONS" envDefault:"100"`
	RetentionCron string `env:"RETENTION_CRON" envDefault:"0 3 * * *"`
	DigestCron    string `env:"DIGEST_CRON" envDefault:"0 21 * * *"`

	// Observability
	MetricsAddr      string `env:"METRICS_ADDR" envDefault:":9091"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"bizgraph"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"console"`

	// Storage
	AuditLogPath string `env:"AUDIT_LOG_PATH"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE" envDefault:"Markdown"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
