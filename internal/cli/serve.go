package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"car-park/internal/logging"
	"car-park/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the car park HTTP API",
	Long: `Serve the JSON API under /api, health checks on /health and
Prometheus metrics on /metrics.

Examples:
  car-park serve
  car-park serve --port 9090
  car-park serve --config car-park.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.NewServer(a.cfg.Port, a.cfg.OTelServiceName, a.carPark)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	select {
	case err := <-serverDone:
		return err
	case <-ctx.Done():
		logging.Logger().Info().Msg("received shutdown signal")
	}

	return shutdownServer(srv, a, serverDone)
}

func shutdownServer(srv *server.Server, a *app, serverDone <-chan error) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-serverDone
}
