package ir

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationCloneIsDeep(t *testing.T) {
	op := sampleOperation()
	op.Value = big.NewInt(5)
	clone := op.Clone()

	clone.Data[0] = 0xff
	clone.Value.SetInt64(99)

	assert.Equal(t, byte(0x12), op.Data[0])
	assert.Equal(t, int64(5), op.Value.Int64())
}

func TestOperationBatchCloneIsDeep(t *testing.T) {
	b := sampleBatch()
	clone := b.Clone()

	clone.Targets[0] = common.HexToAddress("0xCCCC")
	clone.Values[0].SetInt64(7)
	clone.Payloads[0][0] = 0xff

	assert.Equal(t, common.HexToAddress("0xAAAA"), b.Targets[0])
	assert.Equal(t, int64(0), b.Values[0].Int64())
	assert.Equal(t, byte(0x01), b.Payloads[0][0])
}

func TestOperationBatchAligned(t *testing.T) {
	b := sampleBatch()
	assert.True(t, b.Aligned())

	b.Payloads = b.Payloads[:1]
	assert.False(t, b.Aligned())
}

func TestOperationBatchCalls(t *testing.T) {
	calls := sampleBatch().Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, common.HexToAddress("0xBBBB"), calls[1].Target)
	assert.Equal(t, []byte{0x02}, calls[1].Data)
}

func TestOperationJSON(t *testing.T) {
	op := sampleOperation()
	op.Value = big.NewInt(1000)

	data, err := json.Marshal(op)
	require.NoError(t, err)
	assert.Equal(t,
		`{"data":"0x1234","delay":100,`+
			`"predecessor":"0x0000000000000000000000000000000000000000000000000000000000000000",`+
			`"salt":"0x0000000000000000000000000000000000000000000000000000000000000001",`+
			`"target":"0x000000000000000000000000000000000000aaaa","value":"1000"}`,
		string(data))

	var decoded Operation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, op.Equal(decoded))
	assert.Equal(t, HashOperation(op), HashOperation(decoded))
}

func TestOperationBatchJSON(t *testing.T) {
	b := sampleBatch()

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded OperationBatch
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, b.Equal(decoded))
	assert.Equal(t, HashOperationBatch(b), HashOperationBatch(decoded))
}

func TestOperationUnmarshalRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"negative value", `{"value":"-1"}`},
		{"garbage value", `{"value":"ten"}`},
		{"negative delay", `{"delay":-5}`},
		{"overflowing delay", `{"delay":18446744074}`},
		{"delay past duration range", `{"delay":9223372037}`},
		{"value 2^256", `{"value":"115792089237316195423570985008687907853269984665640564039457584007913129639936"}`},
		{"short salt", `{"salt":"0x01"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var op Operation
			assert.Error(t, json.Unmarshal([]byte(tt.json), &op))
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"0", 0},
		{"010", 10},
		{"0x10", 16},
	}
	for _, tt := range tests {
		v, err := ParseValue(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, v.Int64(), tt.in)
	}
}

func TestBatchUnmarshalRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"overflowing delay", `{"targets":[],"values":[],"payloads":[],"delay":18446744074}`},
		{"value 2^256", `{"targets":["0x000000000000000000000000000000000000aaaa"],"values":["0x10000000000000000000000000000000000000000000000000000000000000000"],"payloads":["0x"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b OperationBatch
			assert.Error(t, json.Unmarshal([]byte(tt.json), &b))
		})
	}
}

func TestParseValueBounds(t *testing.T) {
	v, err := ParseValue(MaxValue.String())
	require.NoError(t, err)
	assert.Zero(t, v.Cmp(MaxValue))
	assert.Equal(t, 256, v.BitLen())

	over := new(big.Int).Add(MaxValue, big.NewInt(1))
	_, err = ParseValue(over.String())
	assert.ErrorContains(t, err, "exceeds uint256")

	_, err = ParseValue("0x" + over.Text(16))
	assert.Error(t, err)
}

func TestCheckValue(t *testing.T) {
	assert.NoError(t, CheckValue(nil))
	assert.NoError(t, CheckValue(MaxValue))
	assert.Error(t, CheckValue(big.NewInt(-1)))
	assert.Error(t, CheckValue(new(big.Int).Lsh(big.NewInt(1), 256)))

	b := sampleBatch()
	assert.NoError(t, b.CheckValues())
	b.Values[1] = new(big.Int).Lsh(big.NewInt(1), 256)
	assert.ErrorContains(t, b.CheckValues(), "values[1]")
}

func TestDelayFromSeconds(t *testing.T) {
	d, err := DelayFromSeconds(100)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Second, d)

	d, err = DelayFromSeconds(MaxDelaySeconds)
	require.NoError(t, err)
	assert.Equal(t, MaxDelaySeconds, DelaySeconds(d))

	_, err = DelayFromSeconds(MaxDelaySeconds + 1)
	assert.Error(t, err)
	_, err = DelayFromSeconds(-1)
	assert.Error(t, err)
}

func TestDelaySeconds(t *testing.T) {
	assert.Equal(t, int64(100), DelaySeconds(100*time.Second+999*time.Millisecond))
}
