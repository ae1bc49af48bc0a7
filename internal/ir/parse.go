package ir

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseAddress parses a 0x-prefixed (or bare) 20-byte hex address.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("%q is not a 20-byte hex address", s)
	}
	return common.HexToAddress(s), nil
}

// ParseBytes parses a 0x-prefixed hex payload. Empty means no bytes.
func ParseBytes(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}

// ParseWord parses a 0x value of at most 32 bytes, left-padded. Empty means zero.
func ParseWord(s string) (Identity, error) {
	if s == "" {
		return Identity{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return Identity{}, err
	}
	if len(b) > common.HashLength {
		return Identity{}, fmt.Errorf("%d bytes exceeds %d", len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}

// ParseCall parses "target:value:data". Value and data may be omitted.
func ParseCall(raw string) (Call, error) {
	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return Call{}, fmt.Errorf("want target:value:data, got %q", raw)
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	target, err := ParseAddress(parts[0])
	if err != nil {
		return Call{}, err
	}
	value, err := ParseValue(parts[1])
	if err != nil {
		return Call{}, err
	}
	data, err := ParseBytes(parts[2])
	if err != nil {
		return Call{}, fmt.Errorf("data: %w", err)
	}
	return Call{Target: target, Value: value, Data: data}, nil
}
