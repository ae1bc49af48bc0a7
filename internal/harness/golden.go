package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/timelockidx/internal/ir"
)

// Snapshot is the golden form of a scenario run: one index snapshot per step.
// Labels stand in for identities so golden files never contain hashes.
type Snapshot struct {
	ScenarioName string         `json:"scenario"`
	Steps        []StepSnapshot `json:"steps"`
}

// Marshal encodes s as canonical JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	steps := make([]any, len(s.Steps))
	for i, step := range s.Steps {
		steps[i] = step.canonical()
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario": s.ScenarioName,
		"steps":    steps,
	})
}

// RunWithGolden executes a scenario and compares its step snapshots against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot{ScenarioName: scenarioName, Steps: result.Steps}.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
