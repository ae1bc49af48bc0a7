package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/roach88/timelockidx/internal/grpcapi"
	"github.com/roach88/timelockidx/internal/ir"
)

// CountResult is the output of count.
type CountResult struct {
	Shape string `json:"shape"`
	Count int64  `json:"count"`
}

func (r CountResult) String() string { return strconv.FormatInt(r.Count, 10) }

// OperationList renders indexed operations one per line in text mode.
type OperationList []grpcapi.OperationRecord

func (l OperationList) String() string {
	if len(l) == 0 {
		return "No operations indexed."
	}
	var b strings.Builder
	for i, r := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i) + "  " + formatOperation(r))
	}
	return b.String()
}

// BatchList renders indexed batches one per line in text mode.
type BatchList []grpcapi.BatchRecord

func (l BatchList) String() string {
	if len(l) == 0 {
		return "No batches indexed."
	}
	var b strings.Builder
	for i, r := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i) + "  " + formatBatch(r))
	}
	return b.String()
}

type operationView grpcapi.OperationRecord

func (v operationView) String() string { return formatOperation(grpcapi.OperationRecord(v)) }

func (v operationView) MarshalJSON() ([]byte, error) {
	return json.Marshal(grpcapi.OperationRecord(v))
}

type batchView grpcapi.BatchRecord

func (v batchView) String() string { return formatBatch(grpcapi.BatchRecord(v)) }

func (v batchView) MarshalJSON() ([]byte, error) {
	return json.Marshal(grpcapi.BatchRecord(v))
}

func formatOperation(r grpcapi.OperationRecord) string {
	op := r.Operation
	return fmt.Sprintf("%s target=%s value=%s data=%s delay=%ds",
		r.ID.Hex(), op.Target.Hex(), valueString(op.Value), hexutil.Encode(op.Data), ir.DelaySeconds(op.Delay))
}

func formatBatch(r grpcapi.BatchRecord) string {
	b := r.Batch
	return fmt.Sprintf("%s calls=%d delay=%ds", r.ID.Hex(), len(b.Targets), ir.DelaySeconds(b.Delay))
}

func valueString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var batch bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed operations or batches",
		Long: `List every indexed operation (or batch with --batch) in positional order.

Positions are not stable: cancelling an entry moves the last entry into its slot.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			return withClient(rootOpts, cmd, func(ctx context.Context, c *grpcapi.Client) error {
				if batch {
					records, err := c.Batches(ctx)
					if err != nil {
						return formatter.Fail("list failed", err)
					}
					return formatter.Success(BatchList(records))
				}
				records, err := c.Operations(ctx)
				if err != nil {
					return formatter.Fail("list failed", err)
				}
				return formatter.Success(OperationList(records))
			})
		},
	}
	cmd.Flags().BoolVar(&batch, "batch", false, "list batches instead of single operations")
	return cmd
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	var batch bool
	cmd := &cobra.Command{
		Use:           "count",
		Short:         "Count indexed operations or batches",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			return withClient(rootOpts, cmd, func(ctx context.Context, c *grpcapi.Client) error {
				count, shape := c.OperationCount, "single"
				if batch {
					count, shape = c.BatchCount, "batch"
				}
				n, err := count(ctx)
				if err != nil {
					return formatter.Fail("count failed", err)
				}
				return formatter.Success(CountResult{Shape: shape, Count: n})
			})
		},
	}
	cmd.Flags().BoolVar(&batch, "batch", false, "count batches instead of single operations")
	return cmd
}

// NewAtCommand creates the at command.
func NewAtCommand(rootOpts *RootOptions) *cobra.Command {
	var batch bool
	cmd := &cobra.Command{
		Use:           "at <position>",
		Short:         "Show the entry at a position",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			i, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return badInput(formatter, fmt.Errorf("position %q: %w", args[0], err))
			}
			return withClient(rootOpts, cmd, func(ctx context.Context, c *grpcapi.Client) error {
				if batch {
					r, err := c.BatchAt(ctx, i)
					if err != nil {
						return formatter.Fail("lookup failed", err)
					}
					return formatter.Success(batchView(r))
				}
				r, err := c.OperationAt(ctx, i)
				if err != nil {
					return formatter.Fail("lookup failed", err)
				}
				return formatter.Success(operationView(r))
			})
		},
	}
	cmd.Flags().BoolVar(&batch, "batch", false, "look up a batch instead of a single operation")
	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	var batch bool
	cmd := &cobra.Command{
		Use:           "get <id>",
		Short:         "Show the entry with an identity",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			id, err := grpcapi.ParseIdentity(args[0])
			if err != nil {
				return badInput(formatter, err)
			}
			return withClient(rootOpts, cmd, func(ctx context.Context, c *grpcapi.Client) error {
				if batch {
					r, err := c.Batch(ctx, id)
					if err != nil {
						return formatter.Fail("lookup failed", err)
					}
					return formatter.Success(batchView(r))
				}
				r, err := c.Operation(ctx, id)
				if err != nil {
					return formatter.Fail("lookup failed", err)
				}
				return formatter.Success(operationView(r))
			})
		},
	}
	cmd.Flags().BoolVar(&batch, "batch", false, "look up a batch instead of a single operation")
	return cmd
}
