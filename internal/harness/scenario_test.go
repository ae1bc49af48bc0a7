package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "one schedule"
operations:
  A: { target: "0x000000000000000000000000000000000000aaaa", salt: "0x01", delay: 100 }
flow:
  - action: schedule
    label: A
assertions:
  - type: count
    count: 1
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Contains(t, s.Operations, "A")
	assert.Equal(t, int64(100), s.Operations["A"].Delay)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, ActionSchedule, s.Flow[0].Action)
}

func TestLoadScenarioFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenarioRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    minimalScenario + "assertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name: "missing description",
			yaml: `
name: x
flow: [{action: advance, seconds: 1}]
assertions: [{type: count}]
`,
			wantErr: "description is required",
		},
		{
			name: "undefined label",
			yaml: `
name: x
description: x
flow: [{action: schedule, label: Z}]
assertions: [{type: count}]
`,
			wantErr: "needs an operation label",
		},
		{
			name: "batch label used for schedule",
			yaml: `
name: x
description: x
batches:
  B: { calls: ["0x000000000000000000000000000000000000aaaa"] }
flow: [{action: schedule, label: B}]
assertions: [{type: count}]
`,
			wantErr: "needs an operation label",
		},
		{
			name: "unknown action",
			yaml: `
name: x
description: x
flow: [{action: teleport}]
assertions: [{type: count}]
`,
			wantErr: "unknown action",
		},
		{
			name: "unknown caller",
			yaml: `
name: x
description: x
flow: [{action: advance, seconds: 1, caller: mallory}]
assertions: [{type: count}]
`,
			wantErr: "unknown caller",
		},
		{
			name: "unknown assertion",
			yaml: `
name: x
description: x
flow: [{action: advance, seconds: 1}]
assertions: [{type: trace_contains}]
`,
			wantErr: "unknown assertion type",
		},
		{
			name: "duplicate label across shapes",
			yaml: `
name: x
description: x
operations:
  A: { target: "0x000000000000000000000000000000000000aaaa" }
batches:
  A: { calls: [] }
flow: [{action: advance, seconds: 1}]
assertions: [{type: count}]
`,
			wantErr: "both operation and batch",
		},
		{
			name: "negative min delay",
			yaml: `
name: x
description: x
min_delay: -1
flow: [{action: advance, seconds: 1}]
assertions: [{type: count}]
`,
			wantErr: "min_delay: negative delay",
		},
		{
			name: "operation delay past duration range",
			yaml: `
name: x
description: x
operations:
  A: { target: "0x000000000000000000000000000000000000aaaa", delay: 18446744074 }
flow: [{action: schedule, label: A}]
assertions: [{type: count}]
`,
			wantErr: "operations.A: delay 18446744074 exceeds",
		},
		{
			name: "batch delay past duration range",
			yaml: `
name: x
description: x
batches:
  B: { calls: ["0x000000000000000000000000000000000000aaaa"], delay: 9223372037 }
flow: [{action: schedule_batch, label: B}]
assertions: [{type: count}]
`,
			wantErr: "batches.B: delay 9223372037 exceeds",
		},
		{
			name: "advance past duration range",
			yaml: `
name: x
description: x
flow: [{action: advance, seconds: 9223372037}]
assertions: [{type: count}]
`,
			wantErr: "advance needs positive seconds",
		},
		{
			name: "empty flow",
			yaml: `
name: x
description: x
assertions: [{type: count}]
`,
			wantErr: "flow list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
