package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenariosMatchGolden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".yaml"), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunReportsFailedExpectations(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expectations
description: "every expectation here is wrong"
operations:
  A: { target: "0x000000000000000000000000000000000000aaaa", salt: "0x01", delay: 100 }
flow:
  - action: schedule
    label: A
    expect_error: UNAUTHORIZED
  - action: cancel
    label: A
assertions:
  - type: count
    count: 1
  - type: order
    labels: [A]
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected UNAUTHORIZED, got success")
	assert.Contains(t, result.Errors[1], "Expected: 1 entries")
	assert.Contains(t, result.Errors[2], "Expected: [A]")
}

func TestRunJournalsOnlyAcceptedCommands(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/rejected_requests.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	// schedule A, schedule_batch B, cancel B
	assert.Equal(t, 3, result.Entries)
	assert.Equal(t, []string{"A"}, result.Final().Order)
}

func TestRunPredecessorByLabelInEitherOrder(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: chained
description: "predecessor defined after its dependant"
operations:
  Z: { target: "0x000000000000000000000000000000000000aaaa", salt: "0x02", predecessor: B, delay: 10 }
batches:
  B: { calls: ["0x000000000000000000000000000000000000bbbb"], salt: "0x01", delay: 10 }
flow:
  - action: schedule_batch
    label: B
  - action: schedule
    label: Z
  - action: advance
    seconds: 10
  - action: execute
    label: Z
    expect_error: MISSING_DEPENDENCY
  - action: execute_batch
    label: B
  - action: execute
    label: Z
assertions:
  - type: order
    labels: [Z]
  - type: batch_order
    labels: [B]
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunRejectsPredecessorCycle(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: cycle
description: "labels depend on each other"
operations:
  A: { target: "0x000000000000000000000000000000000000aaaa", predecessor: B }
  B: { target: "0x000000000000000000000000000000000000aaaa", predecessor: A }
flow: [{action: advance, seconds: 1}]
assertions: [{type: count}]
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
