package core

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when a trigger arrives while a run is
// already executing. At most one run per pipeline is ever in flight.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// InvalidParameterError reports a supplied parameter value that failed
// resolution. Parameter resolution happens before any stage runs, so
// this error always aborts the run cleanly.
type InvalidParameterError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%q: %s", e.Name, e.Value, e.Reason)
}

// ConditionEvaluationError reports a stage gate that could not be
// evaluated, usually because it references an undeclared parameter.
// The runner treats it as "skip the stage", never as a run failure.
type ConditionEvaluationError struct {
	Stage  string
	Reason string
}

func (e *ConditionEvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate condition for stage %q: %s", e.Stage, e.Reason)
}

// ErrNotReady is the error a deploy stage records when the health
// poller exhausted its attempts. Escalation to a stage failure is the
// deploy stage's explicit policy, not the poller's.
var ErrNotReady = errors.New("deployment readiness check timed out")
