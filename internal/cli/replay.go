package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/timelockidx/internal/node"
	"github.com/roach88/timelockidx/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	Entries       int    `json:"entries"`
	Operations    int    `json:"operations"`
	Batches       int    `json:"batches"`
	Deterministic bool   `json:"deterministic"`
	Diff          string `json:"diff,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a journal and verify determinism",
		Long: `Replay the command journal to verify determinism and report index statistics.

This command reads every journal entry in order, replays them twice into
independent engines and registries, and compares the resulting state. Roles
and the initial minimum delay come from --config.

Exit codes:
  0 - Replay is deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, journal does not replay, etc.)

Examples:
  timelockidx replay --db ./timelockidx.db
  timelockidx replay --db ./timelockidx.db --config ./timelockidx.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = slog.New(slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	res, err := node.Verify(ctx, st,
		node.WithMinDelay(cfg.MinDelayDuration()),
		node.WithRoles(cfg.Roles()),
		node.WithLogger(logger),
	)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Entries:       res.Entries,
		Operations:    res.Operations,
		Batches:       res.Batches,
		Deterministic: res.Match,
		Diff:          res.Diff,
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd.OutOrStdout(), result, opts.Verbose)
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func outputReplayText(w io.Writer, result ReplayResult, verbose bool) {
	if result.Entries == 0 {
		fmt.Fprintln(w, "No entries found in journal.")
		return
	}

	status := "✓"
	if !result.Deterministic {
		status = "✗"
	}
	fmt.Fprintf(w, "%s %d entries replayed: %d operations, %d batches indexed\n",
		status, result.Entries, result.Operations, result.Batches)

	if !result.Deterministic {
		fmt.Fprintln(w, "Determinism check FAILED")
		if verbose {
			fmt.Fprintln(w, result.Diff)
		}
		return
	}
	fmt.Fprintln(w, "Determinism check passed")
}
