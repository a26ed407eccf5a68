package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/samcore/pkg/adapter"
	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/m-mizutani/samcore/pkg/repository"
	"github.com/m-mizutani/samcore/pkg/usecase/chat"
	"github.com/m-mizutani/samcore/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Storage
	dbPath string

	// Adapter
	geminiAPIKey   string
	geminiModel    string
	geminiEndpoint string

	// Chat
	historyLimit int64
	personaPath  string

	// Logging
	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Aliases:     []string{"d"},
			Usage:       "Path to the conversation database file",
			Value:       "samcore.db",
			Sources:     cli.EnvVars("SAMCORE_DB"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("SAMCORE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "persona-file",
			Usage:       "Path to a YAML persona definition",
			Sources:     cli.EnvVars("SAMCORE_PERSONA_FILE"),
			Destination: &cfg.personaPath,
		},
	}
}

// llmFlags returns flags for model-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       "gemini-2.0-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "gemini-endpoint",
			Usage:       "Gemini API base URL",
			Sources:     cli.EnvVars("GEMINI_ENDPOINT"),
			Destination: &cfg.geminiEndpoint,
		},
		&cli.IntFlag{
			Name:        "history-limit",
			Usage:       "Number of past exchanges included in each prompt",
			Value:       5,
			Sources:     cli.EnvVars("SAMCORE_HISTORY_LIMIT"),
			Destination: &cfg.historyLimit,
		},
	}
}

// loggerContext builds the command logger and attaches it to the context
func (cfg *config) loggerContext(ctx context.Context) context.Context {
	return logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))
}

// newRepository opens the bolt database, falling back to an in-memory store
// when the file cannot be opened. The chat stays usable either way.
func (cfg *config) newRepository(ctx context.Context) repository.Repository {
	repo, err := repository.NewBolt(cfg.dbPath)
	if err != nil {
		logging.From(ctx).Warn("failed to open database, conversation will not be persisted",
			"error", err, "path", cfg.dbPath)
		return repository.NewMemory()
	}
	return repo
}

// newGemini creates the model service adapter
func (cfg *config) newGemini() (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" {
		return nil, goerr.New("gemini-api-key is required")
	}

	opts := []adapter.GeminiOption{
		adapter.WithModel(cfg.geminiModel),
	}
	if cfg.geminiEndpoint != "" {
		opts = append(opts, adapter.WithEndpoint(cfg.geminiEndpoint))
	}

	return adapter.NewGemini(cfg.geminiAPIKey, opts...), nil
}

// persona resolves the active persona, degrading to the built-in one when
// the persona file cannot be loaded.
func (cfg *config) persona(ctx context.Context) model.Persona {
	if cfg.personaPath == "" {
		return chat.DefaultPersona()
	}

	persona, err := chat.LoadPersona(cfg.personaPath)
	if err != nil {
		logging.From(ctx).Warn("failed to load persona file, using built-in persona",
			"error", err, "path", cfg.personaPath)
	}
	return persona
}
