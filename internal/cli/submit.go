package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/timelockidx/internal/grpcapi"
	"github.com/roach88/timelockidx/internal/ir"
)

// SubmitResult is the output of schedule and schedule-batch.
type SubmitResult struct {
	ID string `json:"id"`
}

func (r SubmitResult) String() string { return r.ID }

// ActionResult is the output of cancel, execute and execute-batch.
type ActionResult struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

func (r ActionResult) String() string { return fmt.Sprintf("%s %s", r.Action, r.ID) }

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a single operation",
		Long: `Schedule a single delayed call through the daemon.

The operation is indexed once the engine accepts it and stays listed until it
is cancelled.

Example:
  timelockidx schedule --caller 0xB0... --target 0xAAAA... --data 0x1234 --salt 0x01 --delay 100s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitSingle(rootOpts, flags, cmd, false)
		},
	}
	flags.bindSingle(cmd, true)
	return cmd
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Execute a ready single operation",
		Long: `Execute a single operation whose delay has elapsed.

The operation takes the same flags it was scheduled with. Executed operations
remain listed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitSingle(rootOpts, flags, cmd, true)
		},
	}
	flags.bindSingle(cmd, true)
	return cmd
}

// NewScheduleBatchCommand creates the schedule-batch command.
func NewScheduleBatchCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "schedule-batch",
		Short: "Schedule a batch of calls",
		Long: `Schedule a batch of calls as one unit.

Example:
  timelockidx schedule-batch --caller 0xB0... \
    --call 0xAAAA...:0:0x01 --call 0xBBBB...:0:0x02 --salt 0x02 --delay 100s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitBatch(rootOpts, flags, cmd, false)
		},
	}
	flags.bindBatch(cmd, true)
	return cmd
}

// NewExecuteBatchCommand creates the execute-batch command.
func NewExecuteBatchCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:           "execute-batch",
		Short:         "Execute a ready batch",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitBatch(rootOpts, flags, cmd, true)
		},
	}
	flags.bindBatch(cmd, true)
	return cmd
}

// NewCancelCommand creates the cancel command.
func NewCancelCommand(rootOpts *RootOptions) *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending operation or batch",
		Long: `Cancel a pending operation or batch by identity.

The identity may belong to either shape; it is removed from whichever index
holds it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(rootOpts, caller, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "0x account making the request (required)")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}

func submitSingle(opts *RootOptions, flags *requestFlags, cmd *cobra.Command, execute bool) error {
	formatter := opts.formatter(cmd)
	caller, err := flags.caller()
	if err != nil {
		return badInput(formatter, err)
	}
	op, err := flags.operation()
	if err != nil {
		return badInput(formatter, err)
	}

	return withClient(opts, cmd, func(ctx context.Context, c *grpcapi.Client) error {
		if execute {
			if err := c.Execute(ctx, caller, op); err != nil {
				return formatter.Fail("execute failed", err)
			}
			return formatter.Success(ActionResult{Action: "executed", ID: ir.HashOperation(op).Hex()})
		}
		id, err := c.Schedule(ctx, caller, op)
		if err != nil {
			return formatter.Fail("schedule failed", err)
		}
		formatter.VerboseLog("scheduled operation target=%s delay=%s", op.Target.Hex(), op.Delay)
		return formatter.Success(SubmitResult{ID: id.Hex()})
	})
}

func submitBatch(opts *RootOptions, flags *requestFlags, cmd *cobra.Command, execute bool) error {
	formatter := opts.formatter(cmd)
	caller, err := flags.caller()
	if err != nil {
		return badInput(formatter, err)
	}
	b, err := flags.batch()
	if err != nil {
		return badInput(formatter, err)
	}

	return withClient(opts, cmd, func(ctx context.Context, c *grpcapi.Client) error {
		if execute {
			if err := c.ExecuteBatch(ctx, caller, b); err != nil {
				return formatter.Fail("execute-batch failed", err)
			}
			return formatter.Success(ActionResult{Action: "executed", ID: ir.HashOperationBatch(b).Hex()})
		}
		id, err := c.ScheduleBatch(ctx, caller, b)
		if err != nil {
			return formatter.Fail("schedule-batch failed", err)
		}
		formatter.VerboseLog("scheduled batch calls=%d delay=%s", len(b.Targets), b.Delay)
		return formatter.Success(SubmitResult{ID: id.Hex()})
	})
}

func runCancel(opts *RootOptions, callerHex, idHex string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	caller, err := parseAddress("caller", callerHex)
	if err != nil {
		return badInput(formatter, err)
	}
	id, err := grpcapi.ParseIdentity(idHex)
	if err != nil {
		return badInput(formatter, err)
	}

	return withClient(opts, cmd, func(ctx context.Context, c *grpcapi.Client) error {
		if err := c.Cancel(ctx, caller, id); err != nil {
			return formatter.Fail("cancel failed", err)
		}
		return formatter.Success(ActionResult{Action: "cancelled", ID: id.Hex()})
	})
}

// withClient dials the daemon, runs fn and closes the connection.
func withClient(opts *RootOptions, cmd *cobra.Command, fn func(context.Context, *grpcapi.Client) error) error {
	c, err := opts.client()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, c)
}

func badInput(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid arguments", err)
}
