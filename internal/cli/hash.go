package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/timelockidx/internal/ir"
)

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &requestFlags{}
	var batch bool

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Compute an operation or batch identity offline",
		Long: `Compute the identity the engine derives for a request without contacting
the daemon. Delay does not affect the identity.

Example:
  timelockidx hash --target 0xAAAA... --data 0x1234 --salt 0x01
  timelockidx hash --batch --call 0xAAAA...:0:0x01 --call 0xBBBB...:0:0x02 --salt 0x02`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			if batch {
				b, err := flags.batch()
				if err != nil {
					return badInput(formatter, err)
				}
				return formatter.Success(SubmitResult{ID: ir.HashOperationBatch(b).Hex()})
			}
			if flags.Target == "" {
				return badInput(formatter, errMissingTarget)
			}
			op, err := flags.operation()
			if err != nil {
				return badInput(formatter, err)
			}
			return formatter.Success(SubmitResult{ID: ir.HashOperation(op).Hex()})
		},
	}

	flags.bindCommon(cmd, false)
	cmd.Flags().StringVar(&flags.Target, "target", "", "0x call target")
	cmd.Flags().StringVar(&flags.Value, "value", "0", "call value (decimal or 0x hex)")
	cmd.Flags().StringVar(&flags.Data, "data", "0x", "0x call payload")
	cmd.Flags().StringArrayVar(&flags.Calls, "call", nil, "batch call as target:value:data (repeatable)")
	cmd.Flags().BoolVar(&batch, "batch", false, "hash a batch built from --call")

	return cmd
}
