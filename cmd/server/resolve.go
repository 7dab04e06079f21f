package main

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/server"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <target>",
	Short: "Show what a join against target would launch",
	Long: `Resolve target with the local configuration and print the command,
arguments, working directory and environment overlay. Nothing is launched.
Example: server resolve shell`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log := logging.NewNop()
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log = server.NewLogger(cfg.Logging)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Resolver.QueryTimeout+cfg.Orchestration.Timeout)
		defer cancel()

		spec, err := server.NewResolver(cfg, log, nil).Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		data, err := sonic.ConfigStd.MarshalIndent(map[string]any{
			"target": args[0],
			"path":   spec.Path,
			"args":   spec.Args,
			"dir":    spec.Dir,
			"env":    spec.Env,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolP("verbose", "v", false, "log resolution steps")
}
