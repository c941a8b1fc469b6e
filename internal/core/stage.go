package core

import (
	"context"
	"time"

	"conveyor/internal/collab"
)

// Status is the per-stage execution verdict.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailure  Status = "failure"
	StatusSkipped  Status = "skipped"
	StatusUnstable Status = "unstable"
)

// Outcome is the tri-state verdict summarizing a whole run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeUnstable  Outcome = "unstable"
)

// RunState tracks one run through its lifecycle.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateRunning    RunState = "running"
	StateFinalizing RunState = "finalizing"
	StateDone       RunState = "done"
)

// ActionResult is what a stage action hands back to the executor.
// Err decides success or failure; Report, when present, can mark the
// stage unstable even on a zero exit.
type ActionResult struct {
	Output string
	Err    error
	Report *collab.TestReport
}

// ActionFunc is one stage's external call, bound to the collaborators
// at graph-construction time.
type ActionFunc func(ctx context.Context, rc *RunContext) ActionResult

// Stage is one node of the pipeline graph: either a leaf action or a
// fixed group of leaf stages run concurrently. Stage values are built
// once per pipeline and reused identically across runs.
type Stage struct {
	Name       string
	Kind       string     // the declared action kind; empty for groups
	When       *Condition // nil means always run
	BestEffort bool
	Action     ActionFunc
	Parallel   []*Stage
}

// IsGroup reports whether the stage is a parallel group.
func (s *Stage) IsGroup() bool { return len(s.Parallel) > 0 }

// StageResult records one stage execution. For a parallel group one
// result per member is recorded, followed by the aggregated group
// result.
type StageResult struct {
	StageName  string        `json:"stage"`
	Status     Status        `json:"status"`
	Duration   time.Duration `json:"duration_ns"`
	Output     string        `json:"-"`
	Error      string        `json:"error,omitempty"`
	LogPath    string        `json:"log_path,omitempty"`
	BestEffort bool          `json:"best_effort,omitempty"`
}

// AggregateStatus folds member results into a group status: failure if
// any required member failed, unstable if any member reported partial
// test failures, else success. A best-effort member's failure leaves
// the group status untouched. Members that were all skipped yield a
// skipped group.
func AggregateStatus(results []StageResult) Status {
	status := StatusSuccess
	skipped := 0
	for _, r := range results {
		switch {
		case r.Status == StatusFailure && !r.BestEffort:
			return StatusFailure
		case r.Status == StatusUnstable:
			status = StatusUnstable
		case r.Status == StatusSkipped:
			skipped++
		}
	}
	if skipped == len(results) && len(results) > 0 {
		return StatusSkipped
	}
	return status
}

// ComputeOutcome derives the run verdict from all collected results:
// Failed if any required stage failed, Unstable if any stage reported
// partial failure (an unstable test report or a best-effort failure),
// else Succeeded.
func ComputeOutcome(results []StageResult) Outcome {
	outcome := OutcomeSucceeded
	for _, r := range results {
		switch {
		case r.Status == StatusFailure && !r.BestEffort:
			return OutcomeFailed
		case r.Status == StatusUnstable,
			r.Status == StatusFailure && r.BestEffort:
			outcome = OutcomeUnstable
		}
	}
	return outcome
}
