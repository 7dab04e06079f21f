package main

import (
	"fmt"
	"os"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Terminal relay - interactive terminals over websockets",
	Long: `The terminal relay attaches remote clients to programs running behind a
pseudo-terminal on this host. Each websocket connection to /terminal/<target>
gets its own freshly launched process.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, resolveCmd, attachCmd)
}

// loadConfig reads the environment. Invalid values are reported rather
// than silently replaced with defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
