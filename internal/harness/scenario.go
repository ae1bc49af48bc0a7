package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/timelockidx/internal/ir"
)

// Scenario defines a registry scenario: named requests, a flow of steps and
// assertions on the final index.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MinDelay is the engine's initial minimum delay in seconds.
	MinDelay int64 `yaml:"min_delay,omitempty"`

	// Operations and Batches define the requests steps refer to by label.
	Operations map[string]OperationDef `yaml:"operations,omitempty"`
	Batches    map[string]BatchDef     `yaml:"batches,omitempty"`

	// Flow contains the steps, executed in order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final index.
	Assertions []Assertion `yaml:"assertions"`
}

// OperationDef describes a single operation.
type OperationDef struct {
	Target      string `yaml:"target"`
	Value       string `yaml:"value,omitempty"`
	Data        string `yaml:"data,omitempty"`
	Predecessor string `yaml:"predecessor,omitempty"`
	Salt        string `yaml:"salt,omitempty"`
	Delay       int64  `yaml:"delay,omitempty"`
}

// BatchDef describes a batch. Each call is "target:value:data".
type BatchDef struct {
	Calls       []string `yaml:"calls"`
	Predecessor string   `yaml:"predecessor,omitempty"`
	Salt        string   `yaml:"salt,omitempty"`
	Delay       int64    `yaml:"delay,omitempty"`
}

// Step is one action in the flow.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Label names the operation or batch the step acts on.
	Label string `yaml:"label,omitempty"`

	// ID is a raw 0x identity for cancel, used instead of Label.
	ID string `yaml:"id,omitempty"`

	// Caller is "proposer" (default), "admin" or "stranger".
	Caller string `yaml:"caller,omitempty"`

	// Seconds is how far advance moves the clock.
	Seconds int64 `yaml:"seconds,omitempty"`

	// ExpectError is the error code the step must fail with. Empty means success.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates the final index.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected length (count, batch_count).
	Count int `yaml:"count,omitempty"`

	// Labels is the expected positional order (order, batch_order).
	Labels []string `yaml:"labels,omitempty"`

	// Label is the entry that must be absent (absent).
	Label string `yaml:"label,omitempty"`
}

// Step actions.
const (
	ActionSchedule      = "schedule"
	ActionScheduleBatch = "schedule_batch"
	ActionCancel        = "cancel"
	ActionExecute       = "execute"
	ActionExecuteBatch  = "execute_batch"
	ActionAdvance       = "advance"
)

// Assertion types.
const (
	AssertCount      = "count"
	AssertBatchCount = "batch_count"
	AssertOrder      = "order"
	AssertBatchOrder = "batch_order"
	AssertAbsent     = "absent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and every label
// a step or assertion uses is defined.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := ir.DelayFromSeconds(s.MinDelay); err != nil {
		return fmt.Errorf("min_delay: %w", err)
	}
	for label, def := range s.Operations {
		if _, err := ir.DelayFromSeconds(def.Delay); err != nil {
			return fmt.Errorf("operations.%s: %w", label, err)
		}
	}
	for label, def := range s.Batches {
		if _, err := ir.DelayFromSeconds(def.Delay); err != nil {
			return fmt.Errorf("batches.%s: %w", label, err)
		}
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for label := range s.Batches {
		if _, dup := s.Operations[label]; dup {
			return fmt.Errorf("label %q is defined as both operation and batch", label)
		}
	}

	for i, step := range s.Flow {
		if err := s.validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := s.validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) validateStep(i int, step Step) error {
	switch step.Caller {
	case "", CallerProposer, CallerAdmin, CallerStranger:
	default:
		return fmt.Errorf("flow[%d]: unknown caller %q", i, step.Caller)
	}

	switch step.Action {
	case ActionSchedule, ActionExecute:
		if _, ok := s.Operations[step.Label]; !ok {
			return fmt.Errorf("flow[%d]: %s needs an operation label, got %q", i, step.Action, step.Label)
		}
	case ActionScheduleBatch, ActionExecuteBatch:
		if _, ok := s.Batches[step.Label]; !ok {
			return fmt.Errorf("flow[%d]: %s needs a batch label, got %q", i, step.Action, step.Label)
		}
	case ActionCancel:
		if step.ID == "" && !s.hasLabel(step.Label) {
			return fmt.Errorf("flow[%d]: cancel needs a label or id", i)
		}
	case ActionAdvance:
		if step.Seconds <= 0 || step.Seconds > ir.MaxDelaySeconds {
			return fmt.Errorf("flow[%d]: advance needs positive seconds up to %d", i, ir.MaxDelaySeconds)
		}
	default:
		return fmt.Errorf("flow[%d]: unknown action %q", i, step.Action)
	}
	return nil
}

func (s *Scenario) validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertCount, AssertBatchCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", i, a.Type)
		}
	case AssertOrder, AssertBatchOrder:
		for _, l := range a.Labels {
			if !s.hasLabel(l) {
				return fmt.Errorf("assertions[%d]: unknown label %q", i, l)
			}
		}
	case AssertAbsent:
		if !s.hasLabel(a.Label) {
			return fmt.Errorf("assertions[%d]: unknown label %q", i, a.Label)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

func (s *Scenario) hasLabel(label string) bool {
	if _, ok := s.Operations[label]; ok {
		return true
	}
	_, ok := s.Batches[label]
	return ok
}
