package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the declarative form of a pipeline: its parameter
// surface and ordered stage list. It is parsed once and compiled into
// the typed stage graph; runs never re-interpret the text.
type Definition struct {
	Params []Parameter `yaml:"params"`
	Stages []StageDef  `yaml:"stages"`
}

// StageDef is one declared stage: a leaf action or a parallel block of
// leaf stages, optionally gated and optionally best-effort.
type StageDef struct {
	Name       string     `yaml:"name"`
	Action     string     `yaml:"action,omitempty"`
	BestEffort bool       `yaml:"best_effort,omitempty"`
	When       *Condition `yaml:"when,omitempty"`
	Parallel   []StageDef `yaml:"parallel,omitempty"`
}

// ParseDefinition parses YAML content into a Definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("invalid pipeline definition: %w", err)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinition reads a pipeline definition file and parses it.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read pipeline definition: %w", err)
	}
	return ParseDefinition(data)
}

func (d *Definition) validate() error {
	if len(d.Stages) == 0 {
		return fmt.Errorf("pipeline definition declares no stages")
	}
	seen := make(map[string]bool)
	for _, s := range d.Stages {
		if err := validateStageDef(s, seen, true); err != nil {
			return err
		}
	}
	return nil
}

func validateStageDef(s StageDef, seen map[string]bool, allowGroup bool) error {
	if s.Name == "" {
		return fmt.Errorf("stage with empty name")
	}
	if seen[s.Name] {
		return fmt.Errorf("duplicate stage name %q", s.Name)
	}
	seen[s.Name] = true

	switch {
	case len(s.Parallel) > 0:
		if !allowGroup {
			return fmt.Errorf("stage %q: parallel groups cannot nest", s.Name)
		}
		if s.Action != "" {
			return fmt.Errorf("stage %q: declares both an action and a parallel block", s.Name)
		}
		for _, m := range s.Parallel {
			if err := validateStageDef(m, seen, false); err != nil {
				return err
			}
		}
	case s.Action != "":
	default:
		return fmt.Errorf("stage %q: declares neither action nor parallel block", s.Name)
	}
	return nil
}

// Compile binds the definition to collaborators, producing the
// executable stage graph. Unknown action kinds fail here, before any
// run starts.
func (d *Definition) Compile(c Collaborators, opts ActionOptions) ([]*Stage, error) {
	stages := make([]*Stage, 0, len(d.Stages))
	for _, sd := range d.Stages {
		stage, err := compileStage(sd, c, opts)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func compileStage(sd StageDef, c Collaborators, opts ActionOptions) (*Stage, error) {
	stage := &Stage{
		Name:       sd.Name,
		When:       sd.When,
		BestEffort: sd.BestEffort,
	}

	if len(sd.Parallel) > 0 {
		for _, md := range sd.Parallel {
			member, err := compileStage(md, c, opts)
			if err != nil {
				return nil, err
			}
			stage.Parallel = append(stage.Parallel, member)
		}
		return stage, nil
	}

	action, err := BindAction(sd.Action, c, opts)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", sd.Name, err)
	}
	stage.Kind = sd.Action
	stage.Action = action
	return stage, nil
}

// ParameterSet returns the definition's declared parameters, falling
// back to the built-in surface when the definition declares none.
func (d *Definition) ParameterSet() (*ParameterSet, error) {
	if len(d.Params) == 0 {
		return DefaultParameters(), nil
	}
	return NewParameterSet(d.Params...)
}
