package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/quorum/internal/config"
	"github.com/dshills/quorum/internal/providers"
	"github.com/dshills/quorum/internal/review"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Agent roster and provider checks",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		byID := make(map[string]review.AgentSpec)
		var order []string
		for _, a := range review.BuiltinAgents() {
			byID[a.ID] = a
			order = append(order, a.ID)
		}
		if cfg.RosterFile != "" {
			custom, err := config.LoadRoster(cfg.RosterFile)
			if err != nil {
				return err
			}
			for _, a := range custom {
				if _, exists := byID[a.ID]; !exists {
					order = append(order, a.ID)
				}
				byID[a.ID] = a
			}
		}

		defaults := make(map[string]bool)
		for _, id := range review.DefaultAgentIDs() {
			defaults[id] = true
		}

		for _, id := range order {
			a := byID[id]
			marker := ""
			if defaults[id] {
				marker = " (default)"
			}
			fmt.Fprintf(os.Stdout, "%s%s: %s\n", a.ID, marker, a.Name)
			if len(a.FocusAreas) > 0 {
				fmt.Fprintf(os.Stdout, "  focus: %s\n", strings.Join(a.FocusAreas, ", "))
			}
		}
		return nil
	},
}

var agentsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Checking %s (%s)...\n", cfg.Provider, cfg.Model)

		p, err := providers.New(cfg.Provider, cfg.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = p.Complete(ctx, providers.CompletionRequest{
			System:    "Respond with exactly: ok",
			User:      "ping",
			MaxTokens: 10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", cfg.Provider)
		return nil
	},
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsDoctorCmd)
	agentsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	agentsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}
