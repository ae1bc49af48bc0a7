package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timelockidx/internal/grpcapi"
	"github.com/roach88/timelockidx/internal/ir"
)

// DefaultAddr is the daemon address client commands dial when --addr is unset.
const DefaultAddr = "127.0.0.1:7787"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Addr       string
	ConfigPath string
	Timeout    time.Duration

	// Dial overrides how client commands reach the daemon (for testing).
	// If nil, grpcapi.Dial is used.
	Dial func(target string, opts grpcapi.DialOptions) (*grpcapi.Client, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the timelockidx CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timelockidx",
		Short:   "timelockidx - enumerable timelock operations",
		Long:    "An operation registry that keeps every pending timelock operation and batch listable by position and identity.",
		Version: ir.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", DefaultAddr, "daemon address")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to CUE config file")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "per-request timeout")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))
	cmd.AddCommand(NewScheduleBatchCommand(opts))
	cmd.AddCommand(NewCancelCommand(opts))
	cmd.AddCommand(NewExecuteCommand(opts))
	cmd.AddCommand(NewExecuteBatchCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewAtCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// client dials the daemon. The caller must Close the client.
func (o *RootOptions) client() (*grpcapi.Client, error) {
	dial := o.Dial
	if dial == nil {
		dial = grpcapi.Dial
	}
	addr := o.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	c, err := dial(addr, grpcapi.DialOptions{Timeout: o.Timeout})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to dial daemon", err)
	}
	return c, nil
}
