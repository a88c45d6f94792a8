package cli

import (
	"github.com/spf13/cobra"

	"car-park/internal/config"
)

var (
	cfgFile string
	v       = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "car-park",
	Short: "Car park spot registry",
	Long: `car-park keeps a registry of parking spots and the cars parked in them.

It can be driven from an interactive shell, over HTTP, or both at once.`,
}

func Execute() error {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("port", "8080", "port for the HTTP server")
	_ = v.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
}
