package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/timelockidx/internal/config"
	"github.com/roach88/timelockidx/internal/daemon"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen   string
	Database string

	// DaemonOptions are passed to daemon.New (for testing).
	DaemonOptions []daemon.Option
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the registry daemon",
		Long: `Run the registry daemon.

The daemon loads the CUE config, replays the journal into a fresh engine and
registry, then serves the gRPC API until SIGINT or SIGTERM.

Example:
  timelockidx serve --config ./timelockidx.cue
  timelockidx serve --db /tmp/journal.db --listen 127.0.0.1:9000 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemonOpts := append([]daemon.Option{daemon.WithLogOutput(cmd.ErrOrStderr())}, opts.DaemonOptions...)
	d, err := daemon.New(ctx, cfg, daemonOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start daemon", err)
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			d.Logger().Error("error closing journal", "error", closeErr)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Daemon listening on %s. Press Ctrl-C to stop.\n", cfg.Listen)
	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "daemon error", err)
	}
	return nil
}

// loadConfig reads --config, or the defaults when it is unset.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}
