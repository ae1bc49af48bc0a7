package store

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/timelockidx/internal/ir"
)

var testCaller = common.HexToAddress("0xB0")

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestOperation returns an operation distinguished by salt.
func createTestOperation(salt int64) ir.Operation {
	return ir.Operation{
		Target: common.HexToAddress("0xAAAA"),
		Value:  big.NewInt(7),
		Data:   []byte{0x12, 0x34},
		Salt:   common.BigToHash(big.NewInt(salt)),
		Delay:  100 * time.Second,
	}
}

// createTestBatch returns a two-call batch distinguished by salt.
func createTestBatch(salt int64) ir.OperationBatch {
	return ir.OperationBatch{
		Targets:  []ir.Address{common.HexToAddress("0xAAAA"), common.HexToAddress("0xBBBB")},
		Values:   []*big.Int{big.NewInt(0), big.NewInt(1)},
		Payloads: [][]byte{{0x01}, {0x02}},
		Salt:     common.BigToHash(big.NewInt(salt)),
		Delay:    100 * time.Second,
	}
}
