package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"car-park/internal/carpark"
	"car-park/internal/logging"
	"car-park/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the shell and the HTTP API against the same car park",
	Long: `Start the HTTP API in the background and the interactive shell in the
foreground. Both operate on one registry. Leaving the shell stops the server.`,
	Args: cobra.NoArgs,
	RunE: runBoth,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBoth(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.NewServer(a.cfg.Port, a.cfg.OTelServiceName, a.carPark)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	shellDone := make(chan struct{})
	go func() {
		defer close(shellDone)
		carpark.NewInstrumentedShell(a.carPark, a.telemetry, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	}()

	select {
	case err := <-serverDone:
		return err
	case <-shellDone:
		logging.Logger().Info().Msg("shell exited")
	case <-ctx.Done():
		logging.Logger().Info().Msg("received shutdown signal")
	}

	return shutdownServer(srv, a, serverDone)
}
