package core

import (
	"errors"
	"testing"
)

func TestNewParameterSetValidation(t *testing.T) {
	tests := []struct {
		name    string
		param   Parameter
		wantErr bool
	}{
		{
			name:  "valid string",
			param: Parameter{Name: "BRANCH", Kind: KindString, Default: "main"},
		},
		{
			name:  "valid choice",
			param: Parameter{Name: "ENV", Kind: KindChoice, Default: "a", Choices: []string{"a", "b"}},
		},
		{
			name:    "choice without allowed values",
			param:   Parameter{Name: "ENV", Kind: KindChoice, Default: "a"},
			wantErr: true,
		},
		{
			name:    "choice default outside allowed values",
			param:   Parameter{Name: "ENV", Kind: KindChoice, Default: "c", Choices: []string{"a", "b"}},
			wantErr: true,
		},
		{
			name:    "boolean with bad default",
			param:   Parameter{Name: "FLAG", Kind: KindBoolean, Default: "maybe"},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			param:   Parameter{Name: "X", Kind: "number", Default: "1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParameterSet(tt.param)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewParameterSet() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	values, err := DefaultParameters().Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got := values["BRANCH"]; got != "main" {
		t.Errorf("BRANCH = %v, want main", got)
	}
	if got := values["DEPLOY_ENV"]; got != "staging" {
		t.Errorf("DEPLOY_ENV = %v, want staging", got)
	}
	if got := values["SKIP_TESTS"]; got != false {
		t.Errorf("SKIP_TESTS = %v, want false", got)
	}
	if got := values["PUSH_TO_REGISTRY"]; got != false {
		t.Errorf("PUSH_TO_REGISTRY = %v, want false", got)
	}
}

func TestResolveSuppliedValues(t *testing.T) {
	values, err := DefaultParameters().Resolve(map[string]string{
		"BRANCH":     "feature/x",
		"SKIP_TESTS": "true",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := values["BRANCH"]; got != "feature/x" {
		t.Errorf("BRANCH = %v, want feature/x", got)
	}
	if got := values["SKIP_TESTS"]; got != true {
		t.Errorf("SKIP_TESTS = %v, want true", got)
	}
}

func TestResolveInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		supplied map[string]string
	}{
		{"choice outside allowed set", map[string]string{"DEPLOY_ENV": "qa"}},
		{"boolean that does not parse", map[string]string{"SKIP_TESTS": "yes please"}},
		{"undeclared parameter", map[string]string{"COLOR": "blue"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultParameters().Resolve(tt.supplied)
			var invalid *InvalidParameterError
			if !errors.As(err, &invalid) {
				t.Fatalf("Resolve() error = %v, want InvalidParameterError", err)
			}
		})
	}
}
