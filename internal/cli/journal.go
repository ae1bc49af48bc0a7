package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timelockidx/internal/grpcapi"
	"github.com/roach88/timelockidx/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	ID       string // optional - entries touching one identity only
}

// JournalEntry is one journal entry in command output.
type JournalEntry struct {
	Seq      int64           `json:"seq"`
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Caller   string          `json:"caller"`
	Identity string          `json:"identity,omitempty"`
	At       int64           `json:"at"`
	Payload  json.RawMessage `json:"payload"`
}

// JournalResult holds the journal command output.
type JournalResult struct {
	Entries []JournalEntry `json:"entries"`
	Total   int            `json:"total"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show the command journal",
		Long: `Show the journaled commands in the order they were applied.

With --id only the entries that scheduled, cancelled or executed that
identity are shown.

Examples:
  timelockidx journal --db ./timelockidx.db
  timelockidx journal --db ./timelockidx.db --id 0x1f...
  timelockidx journal --db ./timelockidx.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "filter to one 0x identity")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var entries []store.Entry
	if opts.ID != "" {
		id, perr := grpcapi.ParseIdentity(opts.ID)
		if perr != nil {
			return badInput(formatter, perr)
		}
		entries, err = st.ReadEntriesByIdentity(ctx, id)
	} else {
		entries, err = st.ReadEntries(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := JournalResult{Entries: make([]JournalEntry, len(entries)), Total: len(entries)}
	for i, e := range entries {
		je := JournalEntry{
			Seq:     e.Seq,
			ID:      e.ID,
			Kind:    string(e.Kind),
			Caller:  e.Caller.Hex(),
			At:      e.At,
			Payload: json.RawMessage(e.Payload),
		}
		if e.Kind.HasIdentity() {
			je.Identity = e.Identity.Hex()
		}
		result.Entries[i] = je
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputJournalText(formatter, result)
	return nil
}

func outputJournalText(f *OutputFormatter, result JournalResult) {
	if result.Total == 0 {
		fmt.Fprintln(f.Writer, "No entries found in journal.")
		return
	}
	for _, e := range result.Entries {
		line := fmt.Sprintf("%4d  %s  %-14s %s", e.Seq, time.Unix(e.At, 0).UTC().Format(time.RFC3339), e.Kind, e.Caller)
		if e.Identity != "" {
			line += "  " + e.Identity
		}
		fmt.Fprintln(f.Writer, strings.TrimRight(line, " "))
		f.VerboseLog("      %s", e.Payload)
	}
}
