// Package bootstrap wires configuration, providers and panels for the
// commands.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sector-insights/internal/api"
	"sector-insights/internal/dashboard"
	"sector-insights/internal/interfaces"
	"sector-insights/internal/llm"
	"sector-insights/internal/llm/claude"
	"sector-insights/internal/llm/gemini"
	"sector-insights/internal/llm/groq"
	"sector-insights/internal/llm/llmobs"
	"sector-insights/internal/llm/noop"
	"sector-insights/internal/llm/openai"
	"sector-insights/internal/logger"
	"sector-insights/internal/panels"
	"sector-insights/internal/prompt"
	"sector-insights/internal/runlog"
	"sector-insights/internal/sectors"
	"sector-insights/internal/sectors/sectorsobs"
	"sector-insights/internal/store"
	"sector-insights/internal/trace"
)

// InitializeSystem loads .env and sets up logging and tracing
func InitializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// LoadConfig loads and returns the configuration
func LoadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// RetryConfig converts the retry section of cfg
func RetryConfig(cfg *store.Config) *api.RetryConfig {
	return &api.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		InitialWait: time.Duration(cfg.Retry.InitialWaitMs) * time.Millisecond,
		MaxWait:     time.Duration(cfg.Retry.MaxWaitMs) * time.Millisecond,
		Jitter:      cfg.Retry.Jitter,
	}
}

// DataSource creates the Sectors API client with observability
func DataSource(cfg *store.Config) interfaces.DataSource {
	return sectorsobs.Wrap(sectors.NewClient(cfg))
}

// Completer creates the configured LLM provider, wrapped with
// retry and observability
func Completer(ctx context.Context, cfg *store.Config) (interfaces.Completer, error) {
	var completer interfaces.Completer

	switch cfg.LLM.Provider {
	case "GROQ":
		c, err := groq.NewCompleter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create groq client: %w", err)
		}
		completer = c
	case "OPENAI":
		completer = openai.NewCompleter(cfg)
	case "GEMINI":
		c, err := gemini.NewCompleter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		completer = c
	case "CLAUDE":
		completer = claude.NewCompleter(cfg)
	default:
		logger.Warn(ctx, "No LLM provider configured - using Noop completer")
		return llmobs.Wrap(noop.NewCompleter()), nil
	}

	logger.Info(ctx, "LLM provider ready", "provider", completer.Name())
	return llmobs.Wrap(llm.WithRetry(completer, RetryConfig(cfg))), nil
}

// Driver wires prompts, panels and the run log into the driver
func Driver(ctx context.Context, cfg *store.Config, source interfaces.DataSource, completer interfaces.Completer) (*dashboard.Driver, *runlog.Log, error) {
	lib, err := prompt.NewLibrary(cfg.Prompts)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid prompt override: %w", err)
	}

	opts := []dashboard.Option{dashboard.WithIsolation(cfg.IsolatePanels())}
	var rl *runlog.Log
	if cfg.RunLog.Enabled {
		rl = runlog.New(cfg.RunLog.Dir)
		opts = append(opts, dashboard.WithRecorder(rl))
		CompressOldLogs(ctx, rl, cfg.RunLog.RetentionDays)
	}

	driver, err := dashboard.NewDriver(panels.Default(source, prompt.NewEngine(completer), lib), opts...)
	if err != nil {
		return nil, nil, err
	}
	return driver, rl, nil
}

// CompressOldLogs gzips run log files older than the retention window
func CompressOldLogs(ctx context.Context, rl *runlog.Log, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	n, err := rl.CompressOlder(retentionDays)
	if err != nil {
		logger.Warn(ctx, "Failed to compress old run logs", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "Compressed old run logs", "files", n, "dir", rl.Dir())
	}
}
