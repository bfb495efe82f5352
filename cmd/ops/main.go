// Command ops bundles maintenance tasks for a todoboard deployment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/todoboard/pkg/logger"
)

type rootOptions struct {
	apiURL   string
	logLevel string
	logger   *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ops",
		Short:         "Maintenance commands for todoboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(logger.Config{Level: opts.logLevel, Encoding: "console", Output: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			opts.logger = log
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("TODOBOARD_API", "http://localhost:8000"), "base URL of the todoboard API")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level")

	root.AddCommand(
		newSweepCommand(opts),
		newReconcileCommand(opts),
		newSeedCommand(opts),
		newHeatmapCommand(opts),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
