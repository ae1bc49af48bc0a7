package store

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/roach88/timelockidx/internal/ir"
)

// marshalOperation converts an Operation to canonical JSON TEXT for storage.
func marshalOperation(op ir.Operation) (string, error) {
	data, err := ir.MarshalCanonical(op.CanonicalObject())
	if err != nil {
		return "", fmt.Errorf("marshal operation: %w", err)
	}
	return string(data), nil
}

// marshalBatch converts an OperationBatch to canonical JSON TEXT for storage.
func marshalBatch(b ir.OperationBatch) (string, error) {
	data, err := ir.MarshalCanonical(b.CanonicalObject())
	if err != nil {
		return "", fmt.Errorf("marshal batch: %w", err)
	}
	return string(data), nil
}

func marshalDelay(seconds int64) (string, error) {
	if seconds < 0 {
		return "", fmt.Errorf("marshal delay: negative delay %d", seconds)
	}
	data, err := ir.MarshalCanonical(map[string]any{"delay": seconds})
	if err != nil {
		return "", fmt.Errorf("marshal delay: %w", err)
	}
	return string(data), nil
}

func marshalRole(role string, account ir.Address) (string, error) {
	if role == "" {
		return "", fmt.Errorf("marshal role: empty role")
	}
	data, err := ir.MarshalCanonical(map[string]any{
		"account": hexutil.Encode(account[:]),
		"role":    role,
	})
	if err != nil {
		return "", fmt.Errorf("marshal role: %w", err)
	}
	return string(data), nil
}

func unmarshalOperation(data string) (ir.Operation, error) {
	var op ir.Operation
	if err := json.Unmarshal([]byte(data), &op); err != nil {
		return ir.Operation{}, fmt.Errorf("unmarshal operation: %w", err)
	}
	return op, nil
}

func unmarshalBatch(data string) (ir.OperationBatch, error) {
	var b ir.OperationBatch
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return ir.OperationBatch{}, fmt.Errorf("unmarshal batch: %w", err)
	}
	return b, nil
}

func unmarshalDelay(data string) (int64, error) {
	var payload struct {
		Delay *int64 `json:"delay"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return 0, fmt.Errorf("unmarshal delay: %w", err)
	}
	if payload.Delay == nil || *payload.Delay < 0 {
		return 0, fmt.Errorf("unmarshal delay: missing or negative delay in %s", data)
	}
	return *payload.Delay, nil
}

func unmarshalRole(data string) (string, ir.Address, error) {
	var payload struct {
		Role    string      `json:"role"`
		Account *ir.Address `json:"account"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return "", ir.Address{}, fmt.Errorf("unmarshal role: %w", err)
	}
	if payload.Role == "" || payload.Account == nil {
		return "", ir.Address{}, fmt.Errorf("unmarshal role: missing role or account in %s", data)
	}
	return payload.Role, *payload.Account, nil
}
