package ir

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Wire form of records. Addresses, identities and payloads are lowercase 0x-hex,
// values are decimal strings (uint256 does not fit a JSON number) and delay is
// whole seconds.

// CanonicalObject returns op in the form MarshalCanonical accepts.
func (op Operation) CanonicalObject() map[string]any {
	return map[string]any{
		"target":      hexutil.Encode(op.Target[:]),
		"value":       valueOrZero(op.Value).String(),
		"data":        hexutil.Encode(op.Data),
		"predecessor": op.Predecessor.Hex(),
		"salt":        op.Salt.Hex(),
		"delay":       DelaySeconds(op.Delay),
	}
}

// MarshalJSON encodes op canonically.
func (op Operation) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(op.CanonicalObject())
}

type operationJSON struct {
	Target      Address       `json:"target"`
	Value       string        `json:"value"`
	Data        hexutil.Bytes `json:"data"`
	Predecessor Identity      `json:"predecessor"`
	Salt        Identity      `json:"salt"`
	Delay       int64         `json:"delay"`
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var raw operationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}
	value, err := ParseValue(raw.Value)
	if err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}
	delay, err := DelayFromSeconds(raw.Delay)
	if err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}
	*op = Operation{
		Target:      raw.Target,
		Value:       value,
		Data:        []byte(raw.Data),
		Predecessor: raw.Predecessor,
		Salt:        raw.Salt,
		Delay:       delay,
	}
	return nil
}

// CanonicalObject returns b in the form MarshalCanonical accepts.
func (b OperationBatch) CanonicalObject() map[string]any {
	targets := make([]any, len(b.Targets))
	for i, t := range b.Targets {
		targets[i] = hexutil.Encode(t[:])
	}
	values := make([]any, len(b.Values))
	for i, v := range b.Values {
		values[i] = valueOrZero(v).String()
	}
	payloads := make([]any, len(b.Payloads))
	for i, p := range b.Payloads {
		payloads[i] = hexutil.Encode(p)
	}
	return map[string]any{
		"targets":     targets,
		"values":      values,
		"payloads":    payloads,
		"predecessor": b.Predecessor.Hex(),
		"salt":        b.Salt.Hex(),
		"delay":       DelaySeconds(b.Delay),
	}
}

// MarshalJSON encodes b canonically.
func (b OperationBatch) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(b.CanonicalObject())
}

type batchJSON struct {
	Targets     []Address       `json:"targets"`
	Values      []string        `json:"values"`
	Payloads    []hexutil.Bytes `json:"payloads"`
	Predecessor Identity        `json:"predecessor"`
	Salt        Identity        `json:"salt"`
	Delay       int64           `json:"delay"`
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (b *OperationBatch) UnmarshalJSON(data []byte) error {
	var raw batchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}
	delay, err := DelayFromSeconds(raw.Delay)
	if err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}
	values := make([]*big.Int, len(raw.Values))
	for i, s := range raw.Values {
		v, err := ParseValue(s)
		if err != nil {
			return fmt.Errorf("decode batch: values[%d]: %w", i, err)
		}
		values[i] = v
	}
	payloads := make([][]byte, len(raw.Payloads))
	for i, p := range raw.Payloads {
		payloads[i] = []byte(p)
	}
	targets := raw.Targets
	if targets == nil {
		targets = []Address{}
	}
	*b = OperationBatch{
		Targets:     targets,
		Values:      values,
		Payloads:    payloads,
		Predecessor: raw.Predecessor,
		Salt:        raw.Salt,
		Delay:       delay,
	}
	return nil
}

// ParseValue parses a decimal (or 0x-hex) amount in [0, MaxValue]. Empty means zero.
func ParseValue(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid value %q", s)
	}
	if err := CheckValue(v); err != nil {
		return nil, err
	}
	return v, nil
}
