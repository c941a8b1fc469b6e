package core

import (
	"sync"
	"time"
)

// Trigger describes what started a run.
type Trigger struct {
	// Cause is a short label: "manual", "webhook", "timer".
	Cause string
	// IsPullRequest marks pull-request builds; deploy gates exclude them.
	IsPullRequest bool
	// Supplied holds explicit parameter overrides for this run.
	Supplied map[string]string
}

// Environment is the run-scoped derived state, computed exactly once
// during environment resolution and frozen into the RunContext.
type Environment struct {
	ShortRevision  string
	Version        string
	ImageRef       string
	ImageLatestRef string
	ArtifactDir    string
}

// RunContext carries the resolved parameters, derived environment and
// result accumulator of exactly one pipeline run. It is owned by that
// run alone and discarded when the run ends. Parameters and
// environment are written once before the first stage; only the result
// accumulator mutates afterwards.
type RunContext struct {
	RunID     string
	JobName   string
	RunNumber int
	Trigger   Trigger
	StartedAt time.Time
	Env       Environment

	params map[string]any

	mu      sync.Mutex
	results []StageResult
}

// NewRunContext builds the context for one run from resolved
// parameter values.
func NewRunContext(runID, jobName string, runNumber int, trigger Trigger, params map[string]any) *RunContext {
	return &RunContext{
		RunID:     runID,
		JobName:   jobName,
		RunNumber: runNumber,
		Trigger:   trigger,
		StartedAt: time.Now(),
		params:    params,
	}
}

// StringParam returns the named string or choice parameter value.
func (rc *RunContext) StringParam(name string) (string, bool) {
	v, ok := rc.params[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// BoolParam returns the named boolean parameter value.
func (rc *RunContext) BoolParam(name string) (bool, bool) {
	v, ok := rc.params[name]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Branch returns the branch this run builds, defaulting to "main"
// when the pipeline declares no BRANCH parameter.
func (rc *RunContext) Branch() string {
	if b, ok := rc.StringParam("BRANCH"); ok {
		return b
	}
	return "main"
}

// AppendResult records a stage result in run order.
func (rc *RunContext) AppendResult(res StageResult) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.results = append(rc.results, res)
}

// Results returns a copy of the results collected so far.
func (rc *RunContext) Results() []StageResult {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]StageResult, len(rc.results))
	copy(out, rc.results)
	return out
}
