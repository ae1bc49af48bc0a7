package ir

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a 20-byte call target or caller account.
type Address = common.Address

// Identity is the opaque 256-bit key the engine derives from a request's content.
type Identity = common.Hash

// ZeroIdentity means "no predecessor" when used as Operation.Predecessor.
var ZeroIdentity Identity

// ZeroAddress is the zero account. Granting a role to it opens the role to everyone.
var ZeroAddress Address

// Operation is a single delayed call request.
//
// Identity covers Target, Value, Data, Predecessor and Salt. Delay is
// scheduling metadata only and never affects the identity.
type Operation struct {
	Target      Address
	Value       *big.Int // nil is treated as zero
	Data        []byte
	Predecessor Identity
	Salt        Identity
	Delay       time.Duration
}

// OperationBatch is a set of calls scheduled, cancelled and executed as one unit.
// Targets, Values and Payloads are index-aligned: element i of each describes call i.
type OperationBatch struct {
	Targets     []Address
	Values      []*big.Int
	Payloads    [][]byte
	Predecessor Identity
	Salt        Identity
	Delay       time.Duration
}

// Call is one target invocation inside an operation or batch.
type Call struct {
	Target Address
	Value  *big.Int
	Data   []byte
}

// Clone returns a deep copy that shares no memory with op.
func (op Operation) Clone() Operation {
	out := op
	out.Value = cloneValue(op.Value)
	out.Data = cloneBytes(op.Data)
	return out
}

// Call returns the single call described by op.
func (op Operation) Call() Call {
	return Call{Target: op.Target, Value: valueOrZero(op.Value), Data: cloneBytes(op.Data)}
}

// Equal reports whether two operations carry the same content and delay.
func (op Operation) Equal(other Operation) bool {
	return op.Target == other.Target &&
		valueOrZero(op.Value).Cmp(valueOrZero(other.Value)) == 0 &&
		bytes.Equal(op.Data, other.Data) &&
		op.Predecessor == other.Predecessor &&
		op.Salt == other.Salt &&
		op.Delay == other.Delay
}

// Clone returns a deep copy that shares no memory with b.
func (b OperationBatch) Clone() OperationBatch {
	out := b
	if b.Targets != nil {
		out.Targets = make([]Address, len(b.Targets))
		copy(out.Targets, b.Targets)
	}
	if b.Values != nil {
		out.Values = make([]*big.Int, len(b.Values))
		for i, v := range b.Values {
			out.Values[i] = cloneValue(v)
		}
	}
	if b.Payloads != nil {
		out.Payloads = make([][]byte, len(b.Payloads))
		for i, p := range b.Payloads {
			out.Payloads[i] = cloneBytes(p)
		}
	}
	return out
}

// Aligned reports whether the three call sequences have equal length.
func (b OperationBatch) Aligned() bool {
	return len(b.Targets) == len(b.Values) && len(b.Targets) == len(b.Payloads)
}

// Calls zips the parallel sequences. The batch must be Aligned.
func (b OperationBatch) Calls() []Call {
	calls := make([]Call, len(b.Targets))
	for i := range b.Targets {
		calls[i] = Call{
			Target: b.Targets[i],
			Value:  valueOrZero(b.Values[i]),
			Data:   cloneBytes(b.Payloads[i]),
		}
	}
	return calls
}

// Equal reports whether two batches carry the same content and delay.
func (b OperationBatch) Equal(other OperationBatch) bool {
	if len(b.Targets) != len(other.Targets) ||
		len(b.Values) != len(other.Values) ||
		len(b.Payloads) != len(other.Payloads) {
		return false
	}
	for i := range b.Targets {
		if b.Targets[i] != other.Targets[i] {
			return false
		}
	}
	for i := range b.Values {
		if valueOrZero(b.Values[i]).Cmp(valueOrZero(other.Values[i])) != 0 {
			return false
		}
	}
	for i := range b.Payloads {
		if !bytes.Equal(b.Payloads[i], other.Payloads[i]) {
			return false
		}
	}
	return b.Predecessor == other.Predecessor && b.Salt == other.Salt && b.Delay == other.Delay
}

// MaxValue is the largest call value, 2^256-1. Larger values would wrap in
// the uint256 identity encoding.
var MaxValue = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// MaxDelaySeconds is the largest delay a time.Duration can carry.
const MaxDelaySeconds = math.MaxInt64 / int64(time.Second)

// CheckValue reports an error unless v is nil or within [0, MaxValue].
func CheckValue(v *big.Int) error {
	if v == nil {
		return nil
	}
	if v.Sign() < 0 {
		return fmt.Errorf("negative value %s", v)
	}
	if v.BitLen() > 256 {
		return fmt.Errorf("value %s exceeds uint256", v)
	}
	return nil
}

// CheckValues reports the first out-of-range value of b.
func (b OperationBatch) CheckValues() error {
	for i, v := range b.Values {
		if err := CheckValue(v); err != nil {
			return fmt.Errorf("values[%d]: %w", i, err)
		}
	}
	return nil
}

// DelayFromSeconds converts whole seconds to a Duration, rejecting negative
// and overflowing inputs.
func DelayFromSeconds(secs int64) (time.Duration, error) {
	if secs < 0 {
		return 0, fmt.Errorf("negative delay %d", secs)
	}
	if secs > MaxDelaySeconds {
		return 0, fmt.Errorf("delay %d exceeds %d seconds", secs, MaxDelaySeconds)
	}
	return time.Duration(secs) * time.Second, nil
}

// DelaySeconds returns d truncated to whole seconds.
func DelaySeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func cloneValue(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}
