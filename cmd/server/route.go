package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prepai/server/internal/agent"
	"github.com/prepai/server/internal/multiagent"
)

var routeAgent string

var routeCmd = &cobra.Command{
	Use:   "route <query>",
	Short: "Route one query through the multi-agent system and print the JSON reply",
	Example: `  prepai route "What is LangChain?"
  prepai route --agent interview_preparation "Give me a harder one"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeAgent, "agent", "", "active agent from a previous turn")
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	rt, err := newRouting(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	if !rt.router.Configured() {
		return errors.New("no model credential configured for provider " + cfg.LLM.Provider)
	}

	svc := agent.NewService(rt.router, nil, nil)
	resp, err := svc.Chat(cmd.Context(), agent.ChatRequest{
		Query:        strings.Join(args, " "),
		CurrentAgent: routeAgent,
		Channel:      "cli",
	})
	if err != nil {
		if errors.Is(err, multiagent.ErrEmptyQuery) {
			return errors.New("query must not be empty")
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
