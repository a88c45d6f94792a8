package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"car-park/internal/carpark"
	"car-park/internal/logging"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Manage the car park from an interactive shell",
	Long: `Read commands from standard input, one per line.

Type "help" inside the shell for the list of commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		carpark.NewInstrumentedShell(a.carPark, a.telemetry, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Logger().Info().Msg("received shutdown signal")
	}
	return nil
}
