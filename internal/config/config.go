package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything arcanad reads from the environment.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	EntropyBaseURL        string        `env:"ENTROPY_BASE_URL"        envDefault:"https://qrng.anu.edu.au/API"`
	EntropyTimeout        time.Duration `env:"ENTROPY_TIMEOUT"         envDefault:"5s"`
	EntropyPolicy         string        `env:"ENTROPY_POLICY"          envDefault:"fallback"`
	EntropyBackoffInitial time.Duration `env:"ENTROPY_BACKOFF_INITIAL" envDefault:"1s"`
	EntropyBackoffMax     time.Duration `env:"ENTROPY_BACKOFF_MAX"     envDefault:"30s"`

	LLMProvider       string        `env:"LLM_PROVIDER"        envDefault:"openrouter"`
	LLMModel          string        `env:"LLM_MODEL"           envDefault:"qwen/qwen3-4b:free"`
	LLMFallbackModels []string      `env:"LLM_FALLBACK_MODELS" envSeparator:","`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT"         envDefault:"10s"`
	OpenRouterAPIKey  string        `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL"        envDefault:"gemini-2.0-flash"`

	SessionTTL           time.Duration `env:"SESSION_TTL"            envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	// Level is derived from LogLevel after parsing.
	Level slog.Level `env:"-"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	c.LLMFallbackModels = cleanList(c.LLMFallbackModels)

	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return Config{}, err
	}
	c.Level = level

	switch c.EntropyPolicy {
	case "local", "fallback", "backoff":
	default:
		return Config{}, fmt.Errorf("invalid ENTROPY_POLICY %q: want local, fallback, or backoff", c.EntropyPolicy)
	}

	switch c.LLMProvider {
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			return Config{}, fmt.Errorf("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return Config{}, fmt.Errorf("invalid LLM_PROVIDER %q: want openrouter or gemini", c.LLMProvider)
	}

	return c, nil
}

// cleanList trims whitespace and drops empty entries from a comma-split list.
func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
