package ir

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Identity layout, ABI-encoded then hashed with keccak256:
//
//	operation: (address target, uint256 value, bytes data, bytes32 predecessor, bytes32 salt)
//	batch:     (address[] targets, uint256[] values, bytes[] payloads, bytes32 predecessor, bytes32 salt)
//
// These match the identities a role-gated timelock controller reports on-chain,
// so lookups by identity agree with whatever external observers see.
var (
	operationArgs = abi.Arguments{
		{Type: mustType("address")},
		{Type: mustType("uint256")},
		{Type: mustType("bytes")},
		{Type: mustType("bytes32")},
		{Type: mustType("bytes32")},
	}

	batchArgs = abi.Arguments{
		{Type: mustType("address[]")},
		{Type: mustType("uint256[]")},
		{Type: mustType("bytes[]")},
		{Type: mustType("bytes32")},
		{Type: mustType("bytes32")},
	}
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(fmt.Sprintf("abi type %q: %v", name, err))
	}
	return t
}

// HashOperation computes the content-addressed identity of a single operation.
// Delay is excluded: the same call scheduled with two delays has one identity.
func HashOperation(op Operation) Identity {
	data := op.Data
	if data == nil {
		data = []byte{}
	}
	packed, err := operationArgs.Pack(
		op.Target,
		valueOrZero(op.Value),
		data,
		[32]byte(op.Predecessor),
		[32]byte(op.Salt),
	)
	if err != nil {
		// Pack only fails on type mismatches; the argument types above are fixed,
		// so this is unreachable.
		panic(fmt.Sprintf("HashOperation: failed to encode: %v", err))
	}
	return crypto.Keccak256Hash(packed)
}

// HashOperationBatch computes the content-addressed identity of a batch.
// Misaligned batches still hash; rejecting them is the engine's job.
func HashOperationBatch(b OperationBatch) Identity {
	targets := b.Targets
	if targets == nil {
		targets = []Address{}
	}
	values := make([]*big.Int, len(b.Values))
	for i, v := range b.Values {
		values[i] = valueOrZero(v)
	}
	payloads := make([][]byte, len(b.Payloads))
	for i, p := range b.Payloads {
		if p == nil {
			p = []byte{}
		}
		payloads[i] = p
	}

	packed, err := batchArgs.Pack(
		targets,
		values,
		payloads,
		[32]byte(b.Predecessor),
		[32]byte(b.Salt),
	)
	if err != nil {
		panic(fmt.Sprintf("HashOperationBatch: failed to encode: %v", err))
	}
	return crypto.Keccak256Hash(packed)
}
