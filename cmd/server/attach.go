package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/termrelay/internal/adapter"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach <target>",
	Short: "Attach this terminal to a relay session",
	Long: `Open a session against target on a running relay and use the current
terminal as its surface. The terminal is switched to raw mode for the
lifetime of the session; window size changes are forwarded.
Example: server attach shell --url ws://relay.internal:8000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("url")
		endpoint, err := terminalURL(base, args[0])
		if err != nil {
			return err
		}

		stdinFd := int(os.Stdin.Fd())
		restore, err := adapter.RawMode(stdinFd)
		if err != nil {
			return fmt.Errorf("set terminal raw mode: %w", err)
		}
		defer restore()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		surface := adapter.NewTerminalSurface(os.Stdout)
		client := adapter.NewClient(endpoint, logging.NewNop())
		_, err = client.Run(ctx, surface, os.Stdin, adapter.WatchSizes(ctx, surface))
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	attachCmd.Flags().String("url", "ws://localhost:8000", "relay base URL")
}

// terminalURL builds <base>/terminal/<target>, mapping http(s) to ws(s).
func terminalURL(base, target string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported relay url scheme %q", u.Scheme)
	}
	u.Path += "/terminal/" + url.PathEscape(target)
	return u.String(), nil
}
