package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"conveyor/internal/collab"
	"conveyor/internal/logging"
)

// Runner is the top-level pipeline controller. It resolves parameters
// and environment, walks the stage graph in declared order, applies
// gating, dispatches parallel groups, aggregates the run outcome, and
// always finishes with the finalizing phase.
//
// A Runner owns one pipeline definition and enforces at most one run
// in flight: a trigger arriving while a run executes is rejected with
// ErrRunInProgress.
type Runner struct {
	stages     []*Stage
	params     *ParameterSet
	envr       *EnvironmentResolver
	executor   *Executor
	store      collab.ArtifactStore
	dispatcher *Dispatcher
	log        *logging.Logger

	jobName    string
	runTimeout time.Duration

	gate      chan struct{} // capacity 1; holding the token means running
	runNumber int           // guarded by the gate token
}

// RunnerOptions configures NewRunner.
type RunnerOptions struct {
	JobName    string
	RunTimeout time.Duration
	// FirstRunNumber seeds the run counter, so build numbers can
	// continue an existing sequence. Zero means start at 1.
	FirstRunNumber int
}

// NewRunner assembles a runner for a compiled stage graph.
func NewRunner(stages []*Stage, params *ParameterSet, envr *EnvironmentResolver,
	executor *Executor, store collab.ArtifactStore, dispatcher *Dispatcher,
	log *logging.Logger, opts RunnerOptions) *Runner {

	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	first := opts.FirstRunNumber
	if first < 1 {
		first = 1
	}
	return &Runner{
		stages:     stages,
		params:     params,
		envr:       envr,
		executor:   executor,
		store:      store,
		dispatcher: dispatcher,
		log:        log,
		jobName:    opts.JobName,
		runTimeout: opts.RunTimeout,
		gate:       gate,
		runNumber:  first - 1,
	}
}

// RunReport is the externally visible record of one run.
type RunReport struct {
	RunID     string        `json:"run_id"`
	RunNumber int           `json:"run_number"`
	State     RunState      `json:"state"`
	Outcome   Outcome       `json:"outcome"`
	Version   string        `json:"version"`
	Branch    string        `json:"branch"`
	ImageRef  string        `json:"image_ref"`
	Artifacts string        `json:"artifacts"`
	Duration  time.Duration `json:"duration_ns"`
	StartedAt time.Time     `json:"started_at"`
	Results   []StageResult `json:"results"`
}

// Run executes one pipeline run for the given trigger and returns its
// report. Parameter resolution failures abort before any stage runs.
// Any later failure, including expiry of the run timeout, still passes
// through finalizing, so cleanup and the single notification are
// guaranteed.
func (r *Runner) Run(ctx context.Context, trigger Trigger) (*RunReport, error) {
	select {
	case <-r.gate:
	default:
		return nil, ErrRunInProgress
	}
	defer func() { r.gate <- struct{}{} }()

	values, err := r.params.Resolve(trigger.Supplied)
	if err != nil {
		return nil, err
	}

	r.runNumber++
	rc := NewRunContext(uuid.NewString(), r.jobName, r.runNumber, trigger, values)
	log := r.log.WithRun(rc.RunID)
	log.Info("run starting",
		"run_number", rc.RunNumber,
		"branch", rc.Branch(),
		"cause", trigger.Cause)

	runCtx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()

	rc.Env = r.envr.Resolve(runCtx, rc)
	log.Info("environment resolved",
		"version", rc.Env.Version,
		"image", rc.Env.ImageRef)

	timedOut := r.walkStages(runCtx, rc, log)

	outcome := ComputeOutcome(rc.Results())
	if timedOut {
		outcome = OutcomeFailed
	}

	// Finalizing runs exactly once regardless of how the run ended,
	// under a fresh context so an expired run timeout cannot starve
	// cleanup or the notification.
	report := r.finalize(context.WithoutCancel(ctx), rc, outcome, log)
	return report, nil
}

// walkStages executes the stage list strictly in declared order. It
// reports whether the run deadline expired mid-walk.
func (r *Runner) walkStages(ctx context.Context, rc *RunContext, log *logging.Logger) bool {
	failed := false
	for _, stage := range r.stages {
		if ctx.Err() != nil {
			log.Error("run timeout expired", "stage", stage.Name)
			return true
		}
		if failed {
			// A required stage already failed; the rest of the graph
			// is skipped and cleanup happens in finalizing.
			r.recordSkip(rc, stage)
			continue
		}

		run, err := stage.When.Evaluate(rc, stage.Name)
		if err != nil {
			// An unevaluable gate skips the stage, never fails the run.
			log.Warn("gate unevaluable, skipping stage", "stage", stage.Name, "error", err)
			run = false
		}
		if !run {
			r.recordSkip(rc, stage)
			continue
		}

		if stage.IsGroup() {
			members := r.executor.RunGroup(ctx, stage, rc)
			for _, m := range members {
				rc.AppendResult(m)
			}
			group := StageResult{
				StageName: stage.Name,
				Status:    AggregateStatus(members),
			}
			rc.AppendResult(group)
			if group.Status == StatusFailure {
				failed = true
			}
			continue
		}

		result := r.executor.RunStage(ctx, stage, rc)
		rc.AppendResult(result)
		if result.Status == StatusFailure && !stage.BestEffort {
			failed = true
		}
	}
	return false
}

// recordSkip records a skipped stage; for a parallel group every
// member reports skipped as well.
func (r *Runner) recordSkip(rc *RunContext, stage *Stage) {
	for _, m := range stage.Parallel {
		rc.AppendResult(StageResult{StageName: m.Name, Status: StatusSkipped, BestEffort: m.BestEffort})
	}
	rc.AppendResult(StageResult{StageName: stage.Name, Status: StatusSkipped, BestEffort: stage.BestEffort})
}

// finalize is the guaranteed last phase of every run: persist the run
// metadata record, dispatch the single post-run notification, and
// close out the report.
func (r *Runner) finalize(ctx context.Context, rc *RunContext, outcome Outcome, log *logging.Logger) *RunReport {
	log.Info("finalizing", "outcome", string(outcome))

	// The archive stage writes metadata alongside the artifacts; when
	// it did not run (failed or gated-off runs), write the record here
	// so every run leaves a trace.
	if !r.archived(rc) {
		if _, err := r.store.Archive(ctx, rc.Env.ArtifactDir, nil, MetadataFor(rc)); err != nil {
			var archiveErr *collab.ArchiveError
			if errors.As(err, &archiveErr) {
				outcome = OutcomeFailed
			}
			log.Error("failed to persist run metadata", "error", err)
		}
	}

	duration := time.Since(rc.StartedAt)
	r.dispatcher.Dispatch(ctx, outcome, rc, duration)

	log.Info("run done",
		"outcome", string(outcome),
		"duration_ms", duration.Milliseconds())

	return &RunReport{
		RunID:     rc.RunID,
		RunNumber: rc.RunNumber,
		State:     StateDone,
		Outcome:   outcome,
		Version:   rc.Env.Version,
		Branch:    rc.Branch(),
		ImageRef:  rc.Env.ImageRef,
		Artifacts: rc.Env.ArtifactDir,
		Duration:  duration,
		StartedAt: rc.StartedAt,
		Results:   rc.Results(),
	}
}

// archived reports whether an archive-kind stage already persisted the
// run record during the walk.
func (r *Runner) archived(rc *RunContext) bool {
	names := make(map[string]bool)
	for _, s := range r.stages {
		if s.Kind == ActionArchive {
			names[s.Name] = true
		}
	}
	for _, res := range rc.Results() {
		if names[res.StageName] && res.Status == StatusSuccess {
			return true
		}
	}
	return false
}

// Running reports whether a run is currently in flight.
func (r *Runner) Running() bool {
	select {
	case token := <-r.gate:
		r.gate <- token
		return false
	default:
		return true
	}
}
