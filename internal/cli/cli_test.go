package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/roach88/timelockidx/internal/engine"
	"github.com/roach88/timelockidx/internal/grpcapi"
	"github.com/roach88/timelockidx/internal/ir"
	"github.com/roach88/timelockidx/internal/node"
	"github.com/roach88/timelockidx/internal/store"
	"github.com/roach88/timelockidx/internal/testutil"
)

const (
	proposerHex = "0x00000000000000000000000000000000000000b0"
	strangerHex = "0x00000000000000000000000000000000000000ff"
	targetAHex  = "0x000000000000000000000000000000000000aaaa"
	targetBHex  = "0x000000000000000000000000000000000000bbbb"
)

func testRoles() engine.Roles {
	p := common.HexToAddress(proposerHex)
	return engine.Roles{
		Proposers:  []ir.Address{p},
		Executors:  []ir.Address{ir.ZeroAddress},
		Cancellers: []ir.Address{p},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type cliFixture struct {
	opts  *RootOptions
	clock *testutil.ManualClock
}

// startDaemon serves a node over bufconn and returns root options that dial it.
func startDaemon(t *testing.T) *cliFixture {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewManualClock(time.Time{})
	n, err := node.Open(context.Background(), st,
		node.WithRoles(testRoles()),
		node.WithClock(clock),
		node.WithLogger(discard()),
	)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	grpcapi.RegisterRegistryServer(srv, &grpcapi.Server{Commands: n, Reads: n.Registry()})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	opts := &RootOptions{
		Dial: func(_ string, o grpcapi.DialOptions) (*grpcapi.Client, error) {
			o.Extra = append(o.Extra, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}))
			return grpcapi.Dial("passthrough:///bufnet", o)
		},
	}
	return &cliFixture{opts: opts, clock: clock}
}

// run executes the CLI with args and returns stdout.
func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{}
	if f != nil {
		opts.Dial = f.opts.Dial
	}
	cmd := newRootCommand(opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func scheduleArgs(salt string) []string {
	return []string{"schedule", "--caller", proposerHex, "--target", targetAHex,
		"--data", "0x1234", "--salt", salt, "--delay", "100s"}
}

func opWithSalt(salt string) ir.Operation {
	return ir.Operation{
		Target: common.HexToAddress(targetAHex),
		Value:  big.NewInt(0),
		Data:   []byte{0x12, 0x34},
		Salt:   common.HexToHash(salt),
		Delay:  100 * time.Second,
	}
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "schedule", "schedule-batch", "cancel", "execute", "execute-batch",
		"list", "count", "at", "get", "hash", "replay", "test", "journal"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	addr := cmd.PersistentFlags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, DefaultAddr, addr.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	var f *cliFixture
	_, err := f.run(t, "--format", "yaml", "count")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestScheduleListCancel(t *testing.T) {
	f := startDaemon(t)
	want := ir.HashOperation(opWithSalt("0x01")).Hex()

	out, err := f.run(t, scheduleArgs("0x01")...)
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(out))

	out, err = f.run(t, "count")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))

	out, err = f.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0  "+want)
	assert.Contains(t, out, "data=0x1234 delay=100s")

	out, err = f.run(t, "at", "0")
	require.NoError(t, err)
	assert.Contains(t, out, want)

	out, err = f.run(t, "--format", "json", "get", want)
	require.NoError(t, err)
	var resp struct {
		Status string                  `json:"status"`
		Data   grpcapi.OperationRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, opWithSalt("0x01").Equal(resp.Data.Operation))

	out, err = f.run(t, "cancel", want, "--caller", proposerHex)
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled "+want)

	out, err = f.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No operations indexed.")
}

func TestScheduleBatchAndCrossShapeCancel(t *testing.T) {
	f := startDaemon(t)

	out, err := f.run(t, "schedule-batch", "--caller", proposerHex,
		"--call", targetAHex+":0:0x01", "--call", targetBHex+":0:0x02",
		"--salt", "0x02", "--delay", "100s")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	hashed, err := f.run(t, "hash", "--batch",
		"--call", targetAHex+":0:0x01", "--call", targetBHex+":0:0x02", "--salt", "0x02")
	require.NoError(t, err)
	assert.Equal(t, id, strings.TrimSpace(hashed))

	out, err = f.run(t, "count", "--batch")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))

	out, err = f.run(t, "count")
	require.NoError(t, err)
	assert.Equal(t, "0", strings.TrimSpace(out))

	out, err = f.run(t, "list", "--batch")
	require.NoError(t, err)
	assert.Contains(t, out, id+" calls=2 delay=100s")

	_, err = f.run(t, "cancel", id, "--caller", proposerHex)
	require.NoError(t, err)

	out, err = f.run(t, "list", "--batch")
	require.NoError(t, err)
	assert.Contains(t, out, "No batches indexed.")
}

func TestExecuteKeepsEntryListed(t *testing.T) {
	f := startDaemon(t)

	_, err := f.run(t, scheduleArgs("0x01")...)
	require.NoError(t, err)

	execArgs := []string{"execute", "--caller", strangerHex, "--target", targetAHex,
		"--data", "0x1234", "--salt", "0x01", "--delay", "100s"}

	out, err := f.run(t, execArgs...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [OPERATION_NOT_READY]")

	f.clock.Advance(100 * time.Second)
	_, err = f.run(t, execArgs...)
	require.NoError(t, err)

	out, err = f.run(t, "count")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))
}

func TestLookupErrors(t *testing.T) {
	f := startDaemon(t)

	out, err := f.run(t, "--format", "json", "at", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INDEX_NOT_FOUND", resp.Error.Code)

	out, err = f.run(t, "get", common.HexToHash("0x01").Hex(), "--batch")
	require.Error(t, err)
	assert.Contains(t, out, "Error [IDENTITY_NOT_FOUND]")

	out, err = f.run(t, "schedule", "--caller", strangerHex, "--target", targetAHex, "--salt", "0x09")
	require.Error(t, err)
	assert.Contains(t, out, "Error [UNAUTHORIZED]")
}

func TestBadInput(t *testing.T) {
	f := startDaemon(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad target", []string{"schedule", "--caller", proposerHex, "--target", "0x12"}},
		{"bad salt", []string{"schedule", "--caller", proposerHex, "--target", targetAHex, "--salt", "0xzz"}},
		{"bad call", []string{"schedule-batch", "--caller", proposerHex, "--call", "nope"}},
		{"bad position", []string{"at", "first"}},
		{"bad identity", []string{"get", "0x01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := f.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [E002]")
		})
	}
}

func TestHashIsOffline(t *testing.T) {
	var f *cliFixture
	out, err := f.run(t, "--format", "json", "hash", "--target", targetAHex, "--data", "0x1234", "--salt", "0x01")
	require.NoError(t, err)

	var resp struct {
		Data SubmitResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ir.HashOperation(opWithSalt("0x01")).Hex(), resp.Data.ID)

	_, err = f.run(t, "hash", "--salt", "0x01")
	require.Error(t, err)
}

// writeJournal records a schedule and a cancel through a node and returns the db path.
func writeJournal(t *testing.T) (string, ir.Identity) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	n, err := node.Open(context.Background(), st,
		node.WithRoles(testRoles()),
		node.WithLogger(discard()),
		node.WithClock(testutil.NewManualClock(time.Time{})),
	)
	require.NoError(t, err)

	ctx := context.Background()
	caller := common.HexToAddress(proposerHex)
	id, err := n.Schedule(ctx, caller, opWithSalt("0x01"))
	require.NoError(t, err)
	_, err = n.Schedule(ctx, caller, opWithSalt("0x02"))
	require.NoError(t, err)
	require.NoError(t, n.Cancel(ctx, caller, id))
	return path, id
}

// writeConfig writes a CUE config granting the test roles.
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timelockidx.cue")
	src := `proposers: ["` + proposerHex + `"]
cancellers: ["` + proposerHex + `"]
executors: ["0x0000000000000000000000000000000000000000"]
`
	require.NoError(t, writeFile(path, src))
	return path
}

func TestReplayCommand(t *testing.T) {
	db, _ := writeJournal(t)
	cfg := writeConfig(t)
	var f *cliFixture

	out, err := f.run(t, "replay", "--db", db, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "3 entries replayed: 1 operations, 0 batches indexed")
	assert.Contains(t, out, "Determinism check passed")

	out, err = f.run(t, "--format", "json", "replay", "--db", db, "--config", cfg)
	require.NoError(t, err)
	var resp struct {
		Data ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Deterministic)
	assert.Equal(t, 3, resp.Data.Entries)
}

func TestReplayWithoutRolesFails(t *testing.T) {
	db, _ := writeJournal(t)
	var f *cliFixture

	// Default config grants no roles, so the first entry is refused on replay.
	_, err := f.run(t, "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayMissingDatabaseFlag(t *testing.T) {
	var f *cliFixture
	_, err := f.run(t, "replay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestJournalCommand(t *testing.T) {
	db, id := writeJournal(t)
	var f *cliFixture

	out, err := f.run(t, "journal", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "schedule")
	assert.Contains(t, lines[2], "cancel")

	out, err = f.run(t, "--format", "json", "journal", "--db", db, "--id", id.Hex())
	require.NoError(t, err)
	var resp struct {
		Data JournalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, "schedule", resp.Data.Entries[0].Kind)
	assert.Equal(t, "cancel", resp.Data.Entries[1].Kind)
	assert.Equal(t, id.Hex(), resp.Data.Entries[1].Identity)
}

func TestTestCommandRunsScenarios(t *testing.T) {
	var f *cliFixture
	out, err := f.run(t, "test", "../harness/testdata/scenarios", "--golden", "../harness/testdata/golden")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ two_op_collapse")
	assert.Contains(t, out, "✓ All scenarios passed")

	out, err = f.run(t, "--format", "json", "test", "../harness/testdata/scenarios",
		"--golden", "../harness/testdata/golden", "--filter", "batch_*")
	require.NoError(t, err)
	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
}

func TestTestCommandDetectsGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(golden, "batch_submit.golden"), "{}"))
	var f *cliFixture

	out, err := f.run(t, "test", "../harness/testdata/scenarios", "--golden", golden, "--filter", "batch_submit")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")

	_, err = f.run(t, "test", "../harness/testdata/scenarios", "--golden", golden, "--filter", "batch_submit", "--update")
	require.NoError(t, err)

	_, err = f.run(t, "test", "../harness/testdata/scenarios", "--golden", golden, "--filter", "batch_submit")
	require.NoError(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"serve", "--db", db, "--listen", "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Contains(t, out.String(), "Daemon listening on 127.0.0.1:0")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
