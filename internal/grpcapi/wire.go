package grpcapi

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/roach88/timelockidx/internal/ir"
)

// ScheduleRequest is the JSON payload of Schedule.
type ScheduleRequest struct {
	Caller    ir.Address   `json:"caller"`
	Operation ir.Operation `json:"operation"`
}

// ExecuteRequest is the JSON payload of Execute.
type ExecuteRequest = ScheduleRequest

// ScheduleBatchRequest is the JSON payload of ScheduleBatch.
type ScheduleBatchRequest struct {
	Caller ir.Address        `json:"caller"`
	Batch  ir.OperationBatch `json:"batch"`
}

// ExecuteBatchRequest is the JSON payload of ExecuteBatch.
type ExecuteBatchRequest = ScheduleBatchRequest

// CancelRequest is the JSON payload of Cancel.
type CancelRequest struct {
	Caller ir.Address  `json:"caller"`
	ID     ir.Identity `json:"id"`
}

// OperationRecord is an indexed operation together with its identity.
type OperationRecord struct {
	ID        ir.Identity  `json:"id"`
	Operation ir.Operation `json:"operation"`
}

// BatchRecord is an indexed batch together with its identity.
type BatchRecord struct {
	ID    ir.Identity       `json:"id"`
	Batch ir.OperationBatch `json:"batch"`
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty request")
	}
	return json.Unmarshal(data, v)
}

// ParseIdentity parses a 0x-prefixed 32-byte hex identity.
func ParseIdentity(s string) (ir.Identity, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return ir.Identity{}, fmt.Errorf("parse identity %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return ir.Identity{}, fmt.Errorf("parse identity %q: want %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}
