// PrepAI - interview preparation assistant server
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/prepai/server/internal/config"
	"github.com/prepai/server/internal/llm"
	"github.com/prepai/server/internal/multiagent"
	"github.com/prepai/server/internal/search"
)

var rootCmd = &cobra.Command{
	Use:           "prepai",
	Short:         "PrepAI API server and multi-agent router",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, routeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment and installs the JSON logger
// writing to out.
func loadConfig(out io.Writer) (*config.Config, *slog.Logger, error) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// routing holds the model-backed collaborators. model and searcher are nil
// when their credentials are absent.
type routing struct {
	model    llm.Model
	searcher search.Searcher
	router   *multiagent.Router
}

func newRouting(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*routing, error) {
	model, err := llm.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		slog.Warn("AI features disabled, no model credential", "provider", cfg.LLM.Provider)
	case err != nil:
		return nil, fmt.Errorf("init language model: %w", err)
	default:
		slog.Info("Language model ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	var searcher search.Searcher
	if cfg.Search.TavilyAPIKey != "" {
		searcher = search.NewTavilyClient(cfg.Search.TavilyAPIKey, "")
	} else {
		slog.Warn("Web search disabled, TAVILY_API_KEY not set")
	}

	router := multiagent.NewRouter(model, searcher, multiagent.Options{
		ClassifierModel: cfg.LLM.ClassifierModel,
		AgentModel:      cfg.LLM.Model,
		HistoryWindow:   cfg.Agent.HistoryWindow,
		Logger:          logger,
	})
	return &routing{model: model, searcher: searcher, router: router}, nil
}
