package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/stagehand/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the planning pipeline.

Endpoints:
  GET  /health           health check
  POST /api/parse        parse a diff into structured files
  POST /api/rank         rank changes by importance
  POST /api/budget       token budget and allocation
  POST /api/complexity   complexity analysis
  POST /api/boundaries   commit boundaries and staging plan
  POST /api/plan         the whole pipeline
  GET  /api/ws           WebSocket planning sessions

The listen address defaults to server.addr and server.port from the config.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	srv := e.cfg.Server
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		srv.Addr = addr
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		srv.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "stagehand API listening on http://%s\n", srv.Address())
	return api.New(srv.Address(), e.planner, e.log).ListenAndServe(ctx)
}
