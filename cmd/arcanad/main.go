package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/attacker99/arcana/internal/adapters/decks"
	"github.com/attacker99/arcana/internal/adapters/entropy"
	httpadapter "github.com/attacker99/arcana/internal/adapters/http"
	"github.com/attacker99/arcana/internal/adapters/llm/gemini"
	"github.com/attacker99/arcana/internal/adapters/llm/openrouter"
	"github.com/attacker99/arcana/internal/app"
	"github.com/attacker99/arcana/internal/config"
	"github.com/attacker99/arcana/internal/domain"
	"github.com/attacker99/arcana/internal/ports"
)

// stdRNG delegates to math/rand/v2 (auto-seeded).
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level}))
	slog.SetDefault(logger)

	ctx := context.Background()

	entropyClient := entropy.NewClient(&http.Client{Timeout: cfg.EntropyTimeout}, cfg.EntropyBaseURL)
	var source ports.EntropySource
	switch cfg.EntropyPolicy {
	case "local":
		source = entropy.LocalSource{}
	case "backoff":
		source = entropy.NewBackoffSource(entropyClient, cfg.EntropyBackoffInitial, cfg.EntropyBackoffMax, logger)
	default:
		source = entropy.NewFallbackSource(entropyClient, logger)
	}

	var (
		decider ports.Decider
		interp  ports.Interpreter
	)
	switch cfg.LLMProvider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Error("failed to init gemini client", "error", err)
			os.Exit(1)
		}
		decider, interp = client, client
	default:
		client := openrouter.NewClient(
			&http.Client{Timeout: cfg.LLMTimeout},
			cfg.OpenRouterAPIKey,
			cfg.OpenRouterBaseURL,
			cfg.LLMModel,
			cfg.LLMFallbackModels,
			logger,
		)
		decider, interp = client, client
	}

	coord, err := app.NewDrawCoordinator(ctx, decks.NewEmbeddedStore(), decks.DefaultDeckID, source, stdRNG{}, logger)
	if err != nil {
		logger.Error("failed to init draw coordinator", "error", err)
		os.Exit(1)
	}
	if coord.DeckSize() != domain.DeckSize {
		logger.Error("embedded deck has wrong size",
			"deck", coord.DeckID(), "size", coord.DeckSize(), "want", domain.DeckSize)
		os.Exit(1)
	}

	registry := app.NewSessionRegistry(cfg.SessionTTL, logger)
	registry.StartJanitor(cfg.SessionSweepInterval)
	defer registry.Stop()

	svc := app.NewReadingService(coord, decider, interp, registry, logger)

	e := httpadapter.NewRouter(logger, httpadapter.NewHandler(svc))

	// Graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr, "entropy_policy", cfg.EntropyPolicy, "llm_provider", cfg.LLMProvider)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
