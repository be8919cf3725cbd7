package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"aisnippets/internal/config"
	"aisnippets/internal/database"
	"aisnippets/internal/database/memory"
	"aisnippets/internal/database/mongo"
	"aisnippets/internal/domain"
	"aisnippets/internal/httpserver"
	"aisnippets/internal/scheduler"
	"aisnippets/internal/summarizer"
	"aisnippets/internal/summary"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).ErrorContext(ctx, "Failed to load config",
			"error", err)

		os.Exit(1)
	}

	log := cfg.NewLogger(os.Stdout)
	slog.SetDefault(log)

	store, err := initStore(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize store",
			"error", err,
			"storeDriver", cfg.StoreDriver)

		return
	}
	defer func() {
		if err = store.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close store",
				"error", err,
				"storeDriver", cfg.StoreDriver)
		}
	}()
	log.InfoContext(ctx, "Store is initialized",
		"storeDriver", cfg.StoreDriver)

	summ := summarizer.NewCachingSummarizer(
		initSummarizer(ctx, cfg, log),
		cfg.SummaryCacheSize,
		cfg.SummaryCacheTTL,
	)
	svc := summary.New(store, summ, log)

	if cfg.BackfillSpec != "" {
		sched := scheduler.New(ctx, svc, cfg.BackfillSpec, cfg.BackfillLimit, log)

		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", cfg.BackfillSpec)

			return
		}
		defer sched.Stop()
		log.InfoContext(ctx, "Scheduler is started",
			"spec", cfg.BackfillSpec,
			"limit", cfg.BackfillLimit,
			"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())
	}

	srv := &http.Server{
		Addr: net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler: httpserver.New(svc, httpserver.Config{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			StreamTimeout:  cfg.StreamTimeout,
		}, log).Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	log.InfoContext(ctx, "Server is started",
		"addr", srv.Addr,
		"appEnv", cfg.AppEnv)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Server failed",
				"error", err,
				"addr", srv.Addr)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Open summary streams only end with their request context.
	cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down server",
			"error", err)
	}

	log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initStore(ctx context.Context, cfg config.Config, log *slog.Logger) (domain.SnippetStore, error) {
	switch cfg.StoreDriver {
	case config.StoreMongoDB:
		return mongo.New(ctx, cfg.MongoDBURI, cfg.MongoDBDatabase, log)
	case config.StoreMemory:
		log.WarnContext(ctx, "Using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return database.New(ctx, cfg.DBPath, log)
	}
}

func initSummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	fallback := summarizer.NewMockSummarizer(cfg.MockChunkDelay)

	switch cfg.SummarizerProvider {
	case config.ProviderMock:
		log.InfoContext(ctx, "Mock summarizer is initialized",
			"provider", config.ProviderMock)

		return fallback

	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.WarnContext(ctx, "GEMINI_API_KEY is missing so fallback will be used",
				"envVar", "GEMINI_API_KEY")

			return fallback
		}

		s, err := summarizer.NewGeminiSummarizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
		if err != nil {
			log.ErrorContext(ctx, "Failed to create Gemini summarizer so fallback will be used",
				"error", err,
				"envVar", "GEMINI_API_KEY")

			return fallback
		}

		log.InfoContext(ctx, "Gemini summarizer is initialized",
			"provider", config.ProviderGemini)

		return s

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			log.WarnContext(ctx, "ANTHROPIC_API_KEY is missing so fallback will be used",
				"envVar", "ANTHROPIC_API_KEY")

			return fallback
		}

		s, err := summarizer.NewAnthropicSummarizer(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			log.ErrorContext(ctx, "Failed to create Anthropic summarizer so fallback will be used",
				"error", err,
				"envVar", "ANTHROPIC_API_KEY")

			return fallback
		}

		log.InfoContext(ctx, "Anthropic summarizer is initialized",
			"provider", config.ProviderAnthropic)

		return s

	default:
		if cfg.OpenAIAPIKey == "" {
			log.WarnContext(ctx, "OPENAI_API_KEY is missing so fallback will be used",
				"envVar", "OPENAI_API_KEY")

			return fallback
		}

		s, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
				"error", err,
				"envVar", "OPENAI_API_KEY")

			return fallback
		}

		log.InfoContext(ctx, "OpenAI summarizer is initialized",
			"provider", config.ProviderOpenAI)

		return s
	}
}
