package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreSQLite  = "sqlite"
	StoreMongoDB = "mongodb"
	StoreMemory  = "memory"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

type Config struct {
	Port     int    `env:"PORT"      envDefault:"3000"`
	AppEnv   string `env:"APP_ENV"   envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver     string `env:"STORE_DRIVER"     envDefault:"sqlite"`
	DBPath          string `env:"DB_PATH"          envDefault:"db.sqlite"`
	MongoDBURI      string `env:"MONGODB_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDBDatabase string `env:"MONGODB_DATABASE" envDefault:"ai-snippet-service"`

	SummarizerProvider string        `env:"SUMMARIZER_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIModel        string        `env:"OPENAI_MODEL"`
	AnthropicAPIKey    string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel     string        `env:"ANTHROPIC_MODEL"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL"`
	GeminiBaseURL      string        `env:"GEMINI_BASE_URL"`
	MockChunkDelay     time.Duration `env:"MOCK_CHUNK_DELAY"    envDefault:"100ms"`

	SummaryCacheSize int           `env:"SUMMARY_CACHE_SIZE" envDefault:"1024"`
	SummaryCacheTTL  time.Duration `env:"SUMMARY_CACHE_TTL"  envDefault:"24h"`

	BackfillSpec  string `env:"BACKFILL_SPEC"`
	BackfillLimit int    `env:"BACKFILL_LIMIT" envDefault:"20"`

	StreamTimeout      time.Duration `env:"STREAM_TIMEOUT"       envDefault:"0s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

// LoadConfig reads .env files, when present, and then the environment.
// Variables that are already set take precedence over .env values.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreSQLite, StoreMongoDB, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.SummarizerProvider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("unknown SUMMARIZER_PROVIDER %q", c.SummarizerProvider)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.StreamTimeout < 0 {
		return fmt.Errorf("invalid STREAM_TIMEOUT %s", c.StreamTimeout)
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// NewLogger writes JSON records in production and text records elsewhere.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}

	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
