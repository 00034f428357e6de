package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a record engine test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Declarations lists declaration files or CUE directories to apply,
	// relative to the scenario file.
	Declarations []string `yaml:"declarations"`

	// Steps run in order against the registered tables.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and audit trail.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one record engine operation.
type Step struct {
	Op     string         `yaml:"op"`
	Table  string         `yaml:"table,omitempty"`
	Ref    string         `yaml:"ref,omitempty"`
	As     string         `yaml:"as,omitempty"`
	Column string         `yaml:"column,omitempty"`
	Values map[string]any `yaml:"values,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect *Expect        `yaml:"expect,omitempty"`
}

// Expect specifies the expected step outcome.
type Expect struct {
	// Error is the expected error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Found is the expected find outcome.
	Found *bool `yaml:"found,omitempty"`

	// Count is the expected row count of an all step.
	Count *int `yaml:"count,omitempty"`

	// Values is a subset match on the step's resulting record.
	Values map[string]any `yaml:"values,omitempty"`
}

// Assertion validates the audit trail or final state.
type Assertion struct {
	Type    string         `yaml:"type"`
	Table   string         `yaml:"table,omitempty"`
	Action  string         `yaml:"action,omitempty"`
	Actions []string       `yaml:"actions,omitempty"`
	Count   int            `yaml:"count,omitempty"`
	Where   map[string]any `yaml:"where,omitempty"`
	Expect  map[string]any `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpCreate      = "create"
	OpFind        = "find"
	OpAll         = "all"
	OpSet         = "set"
	OpSave        = "save"
	OpDelete      = "delete"
	OpDeleteWhere = "delete_where"
	OpResolve     = "resolve"
)

// Assertion type constants.
const (
	AssertAuditCount = "audit_count"
	AssertAuditOrder = "audit_order"
	AssertFinalState = "final_state"
	AssertRowCount   = "row_count"
)

// LoadScenario reads and parses a scenario YAML file. Declaration paths
// are resolved against the scenario's directory. Unknown fields, missing
// required fields and missing declaration files are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, decl := range scenario.Declarations {
		if !filepath.IsAbs(decl) {
			scenario.Declarations[i] = filepath.Join(base, decl)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Declarations) == 0 {
		return fmt.Errorf("declarations list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, decl := range s.Declarations {
		if _, err := os.Stat(decl); os.IsNotExist(err) {
			return fmt.Errorf("declaration file not found: %s", decl)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	needTable := func() error {
		if s.Table == "" {
			return fmt.Errorf("steps[%d]: table is required for %s", index, s.Op)
		}
		return nil
	}
	needRef := func() error {
		if s.Ref == "" {
			return fmt.Errorf("steps[%d]: ref is required for %s", index, s.Op)
		}
		return nil
	}

	switch s.Op {
	case OpCreate, OpAll:
		return needTable()
	case OpFind, OpDeleteWhere:
		if err := needTable(); err != nil {
			return err
		}
		if s.Where == nil {
			return fmt.Errorf("steps[%d]: where is required for %s", index, s.Op)
		}
	case OpSet:
		if err := needRef(); err != nil {
			return err
		}
		if len(s.Values) == 0 {
			return fmt.Errorf("steps[%d]: values are required for set", index)
		}
	case OpSave, OpDelete:
		return needRef()
	case OpResolve:
		if err := needRef(); err != nil {
			return err
		}
		if s.Column == "" {
			return fmt.Errorf("steps[%d]: column is required for resolve", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertAuditCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for audit_count", index)
		}
	case AssertAuditOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for audit_order", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
