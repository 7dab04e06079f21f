package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	Long: `Run the HTTP and websocket server. Configuration comes from the
environment (PORT, HOST, TERMINAL_*, RESOLVER_*, ORCHESTRATION_*); flags
override the matching variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Server.Port, _ = flags.GetString("port")
		}
		if flags.Changed("host") {
			cfg.Server.Host, _ = flags.GetString("host")
		}
		if flags.Changed("log-level") {
			cfg.Logging.Level, _ = flags.GetString("log-level")
		}
		if flags.Changed("dev") {
			cfg.Logging.Development, _ = flags.GetBool("dev")
		}

		srv, err := server.NewServer(cfg)
		if err != nil {
			return err
		}
		defer srv.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("port", "8000", "listen port (PORT)")
	serveCmd.Flags().String("host", "0.0.0.0", "listen host (HOST)")
	serveCmd.Flags().String("log-level", "info", "log level: debug, info, warn, error (LOG_LEVEL)")
	serveCmd.Flags().Bool("dev", false, "development logging (LOG_DEV)")
}
