package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a simulated shell session.
// A session walks a fake filesystem with cd steps, carrying the loaded
// stack and freshness tag from one step to the next the way the shell hook
// does, and diffs shell state dumps with compare steps.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Home is the home directory. Defaults to /home/user.
	Home string `yaml:"home,omitempty"`

	// Marker is the per-directory file name. Defaults to .cdenv.sh.
	Marker string `yaml:"marker,omitempty"`

	// SearchPath is a colon-separated list of directories whose *.sh files
	// are always loaded first.
	SearchPath string `yaml:"search_path,omitempty"`

	Global     bool `yaml:"global,omitempty"`
	Autoreload bool `yaml:"autoreload,omitempty"`

	// Files maps absolute paths to modification times.
	Files map[string]uint64 `yaml:"files,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Step is one event in the session. Touch and Remove are applied before
// Cd or Compare. A step may consist of filesystem edits only.
type Step struct {
	Touch   []string     `yaml:"touch,omitempty"`
	Remove  []string     `yaml:"remove,omitempty"`
	Cd      string       `yaml:"cd,omitempty"`
	Reload  bool         `yaml:"reload,omitempty"`
	Compare *CompareStep `yaml:"compare,omitempty"`
	Expect  *Expect      `yaml:"expect,omitempty"`
}

// CompareStep holds the two shell state dumps to diff.
type CompareStep struct {
	Before string `yaml:"before"`
	After  string `yaml:"after"`
}

// Expect lists expected outcomes. Only non-nil fields are checked, so
// an explicit empty list asserts that nothing happened.
type Expect struct {
	Unload  []string `yaml:"unload,omitempty"`
	Load    []string `yaml:"load,omitempty"`
	Removed []string `yaml:"removed,omitempty"`
	Changed []string `yaml:"changed,omitempty"`
	Tag     *uint64  `yaml:"tag,omitempty"`

	// Report lists the change strings of a compare step, e.g. "add FOO".
	Report []string `yaml:"report,omitempty"`
}

// Defaults applied by LoadScenario when a field is empty.
const (
	DefaultHome   = "/home/user"
	DefaultMarker = ".cdenv.sh"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Home == "" {
		scenario.Home = DefaultHome
	}
	if scenario.Marker == "" {
		scenario.Marker = DefaultMarker
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
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for p := range s.Files {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("files: %q is not absolute", p)
		}
	}

	for i, step := range s.Steps {
		if step.Cd != "" && step.Compare != nil {
			return fmt.Errorf("steps[%d]: cd and compare are mutually exclusive", i)
		}
		if step.Cd == "" && step.Compare == nil && len(step.Touch) == 0 && len(step.Remove) == 0 {
			return fmt.Errorf("steps[%d]: step does nothing", i)
		}
		if step.Reload && step.Cd == "" {
			return fmt.Errorf("steps[%d]: reload requires cd", i)
		}
		if step.Cd != "" && !strings.HasPrefix(step.Cd, "/") {
			return fmt.Errorf("steps[%d]: cd %q is not absolute", i, step.Cd)
		}
		if step.Expect == nil {
			continue
		}
		if step.Compare != nil && (step.Expect.Unload != nil || step.Expect.Load != nil ||
			step.Expect.Removed != nil || step.Expect.Changed != nil || step.Expect.Tag != nil) {
			return fmt.Errorf("steps[%d].expect: compare steps only check report", i)
		}
		if step.Cd != "" && step.Expect.Report != nil {
			return fmt.Errorf("steps[%d].expect: report requires compare", i)
		}
	}
	return nil
}
