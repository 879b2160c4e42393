package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/quorum/internal/config"
	"github.com/dshills/quorum/internal/github"
	"github.com/dshills/quorum/internal/progress"
	"github.com/dshills/quorum/internal/review"
	"github.com/dshills/quorum/internal/server"
)

// serveEngine runs review requests accepted over HTTP. Each run gets a
// fresh orchestrator bound to the request's bus and run id.
type serveEngine struct {
	cfg config.Config
}

func (e *serveEngine) Start(ctx context.Context, req server.RunRequest, bus *progress.Bus) (*review.Report, error) {
	client, err := github.NewClient()
	if err != nil {
		bus.Emit(progress.StageError, err.Error(), nil)
		bus.Close()
		return nil, err
	}

	runner, err := buildRunner(e.cfg)
	if err != nil {
		bus.Emit(progress.StageError, err.Error(), nil)
		bus.Close()
		return nil, err
	}

	instructions := req.Instructions
	if instructions == "" {
		instructions = e.cfg.Instructions
	}

	orch := review.NewOrchestrator(runner, client, client, bus, review.Options{
		Agents:       req.Agents,
		Skip:         skipPolicy(e.cfg),
		Instructions: instructions,
		Post:         req.Post,
		TaskTimeout:  taskTimeout(e.cfg),
		Version:      version,
		RunID:        req.ID,
	})
	return orch.Review(ctx, req.Target)
}

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quorum HTTP server",
	Long: `Start an HTTP server exposing review runs.

Endpoints:
  GET  /api/health               - Health check
  POST /api/reviews              - Start a review run
  GET  /api/reviews/{id}         - Fetch a run's report
  GET  /api/reviews/{id}/events  - Server-sent progress events
  GET  /api/reviews/{id}/ws      - WebSocket progress events
  POST /api/webhook              - GitHub pull_request webhook`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		addr := cfg.Server.Addr
		if flagAddr != "" {
			addr = flagAddr
		}

		srv, err := server.New(&serveEngine{cfg: cfg}, server.Options{
			Addr:          addr,
			WebhookSecret: cfg.Server.WebhookSecret,
			EventBuffer:   cfg.Server.EventBuffer,
			RosterPath:    cfg.RosterFile,
			LogFile:       cfg.Server.LogFile,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		select {
		case <-stop:
			fmt.Fprintln(os.Stderr, "Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				exitCode = ExitRuntimeError
			}
		case err := <-errChan:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (host:port; overrides config)")
}
