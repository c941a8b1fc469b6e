package core

import (
	"fmt"
	"slices"
	"strconv"
)

// ParamKind is the declared type of a build parameter.
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindChoice  ParamKind = "choice"
	KindBoolean ParamKind = "boolean"
)

// Parameter declares one typed build input with a default. Choice
// parameters carry the set of allowed values.
type Parameter struct {
	Name    string    `yaml:"name"`
	Kind    ParamKind `yaml:"kind"`
	Default string    `yaml:"default"`
	Choices []string  `yaml:"choices,omitempty"`
}

// ParameterSet is the declared parameter surface of a pipeline.
type ParameterSet struct {
	params []Parameter
}

// NewParameterSet validates the declarations and returns the set.
// Every Choice parameter must supply a non-empty allowed set that
// contains its default; Boolean defaults must parse.
func NewParameterSet(params ...Parameter) (*ParameterSet, error) {
	for _, p := range params {
		switch p.Kind {
		case KindString:
		case KindChoice:
			if len(p.Choices) == 0 {
				return nil, fmt.Errorf("choice parameter %s declares no allowed values", p.Name)
			}
			if !slices.Contains(p.Choices, p.Default) {
				return nil, fmt.Errorf("choice parameter %s: default %q not in allowed values", p.Name, p.Default)
			}
		case KindBoolean:
			if _, err := strconv.ParseBool(p.Default); err != nil {
				return nil, fmt.Errorf("boolean parameter %s: invalid default %q", p.Name, p.Default)
			}
		default:
			return nil, fmt.Errorf("parameter %s: unknown kind %q", p.Name, p.Kind)
		}
	}
	return &ParameterSet{params: params}, nil
}

// DefaultParameters is the parameter surface of the built-in pipeline
// template.
func DefaultParameters() *ParameterSet {
	ps, err := NewParameterSet(
		Parameter{Name: "BRANCH", Kind: KindString, Default: "main"},
		Parameter{Name: "DEPLOY_ENV", Kind: KindChoice, Default: "staging", Choices: []string{"staging", "production"}},
		Parameter{Name: "SKIP_TESTS", Kind: KindBoolean, Default: "false"},
		Parameter{Name: "PUSH_TO_REGISTRY", Kind: KindBoolean, Default: "false"},
		Parameter{Name: "DEPLOY_APPROVED", Kind: KindBoolean, Default: "false"},
	)
	if err != nil {
		// The built-in declarations are constants; this cannot happen.
		panic(err)
	}
	return ps
}

// Resolve produces the run's parameter values: the supplied value when
// present and valid, the declared default otherwise. Supplied names
// that were never declared, Choice values outside the allowed set, and
// Boolean values that do not parse all yield an InvalidParameterError.
// Resolve has no side effects.
func (ps *ParameterSet) Resolve(supplied map[string]string) (map[string]any, error) {
	declared := make(map[string]bool, len(ps.params))
	for _, p := range ps.params {
		declared[p.Name] = true
	}
	for name := range supplied {
		if !declared[name] {
			return nil, &InvalidParameterError{Name: name, Value: supplied[name], Reason: "parameter not declared"}
		}
	}

	values := make(map[string]any, len(ps.params))
	for _, p := range ps.params {
		raw, ok := supplied[p.Name]
		if !ok {
			raw = p.Default
		}

		switch p.Kind {
		case KindChoice:
			if !slices.Contains(p.Choices, raw) {
				return nil, &InvalidParameterError{
					Name:   p.Name,
					Value:  raw,
					Reason: fmt.Sprintf("not one of %v", p.Choices),
				}
			}
			values[p.Name] = raw
		case KindBoolean:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, &InvalidParameterError{Name: p.Name, Value: raw, Reason: "not a boolean"}
			}
			values[p.Name] = b
		default:
			values[p.Name] = raw
		}
	}
	return values, nil
}
