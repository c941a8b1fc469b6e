package core

import (
	"context"
	"sync"
	"time"

	"conveyor/internal/collab"
	"conveyor/internal/logging"
)

// Executor runs single stages and parallel groups, mapping each
// action's exit into a StageResult.
type Executor struct {
	// StageTimeout bounds one leaf action.
	StageTimeout time.Duration
	// Store receives captured stage output; nil disables log capture.
	Store collab.ArtifactStore
	Log   *logging.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(stageTimeout time.Duration, store collab.ArtifactStore, log *logging.Logger) *Executor {
	return &Executor{StageTimeout: stageTimeout, Store: store, Log: log}
}

// RunStage executes one leaf stage and returns its result. The action
// runs under the stage timeout; its duration is measured here. Output
// is captured and persisted but never interpreted beyond exit status
// and the optional test report.
func (e *Executor) RunStage(ctx context.Context, stage *Stage, rc *RunContext) StageResult {
	log := e.Log.WithStage(stage.Name)
	log.Info("stage starting")

	stageCtx, cancel := context.WithTimeout(ctx, e.StageTimeout)
	defer cancel()

	start := time.Now()
	res := stage.Action(stageCtx, rc)
	elapsed := time.Since(start)

	result := StageResult{
		StageName:  stage.Name,
		Status:     StatusSuccess,
		Duration:   elapsed,
		Output:     res.Output,
		BestEffort: stage.BestEffort,
	}

	switch {
	case res.Err != nil:
		result.Status = StatusFailure
		result.Error = res.Err.Error()
	case res.Report != nil && res.Report.Failed > 0:
		// Tests ran and reported failures without aborting.
		result.Status = StatusUnstable
	}

	if e.Store != nil && res.Output != "" {
		path, err := e.Store.SaveStageLog(rc.Env.ArtifactDir, stage.Name, res.Output)
		if err != nil {
			log.Warn("failed to save stage log", "error", err)
		} else {
			result.LogPath = path
		}
	}

	log.Info("stage finished",
		"status", string(result.Status),
		"duration_ms", elapsed.Milliseconds())
	return result
}

// RunGroup executes all members of a parallel group concurrently and
// returns one result per member, in declaration order regardless of
// completion order. Members are never cancelled because a sibling
// failed; the group always waits for everyone so that all diagnostic
// output is collected.
func (e *Executor) RunGroup(ctx context.Context, group *Stage, rc *RunContext) []StageResult {
	results := make([]StageResult, len(group.Parallel))

	var wg sync.WaitGroup
	for i, member := range group.Parallel {
		wg.Add(1)
		go func(i int, member *Stage) {
			defer wg.Done()

			run, err := member.When.Evaluate(rc, member.Name)
			if err != nil {
				e.Log.WithStage(member.Name).Warn("gate unevaluable, skipping", "error", err)
				run = false
			}
			if !run {
				results[i] = StageResult{
					StageName:  member.Name,
					Status:     StatusSkipped,
					BestEffort: member.BestEffort,
				}
				return
			}
			results[i] = e.RunStage(ctx, member, rc)
		}(i, member)
	}
	wg.Wait()

	return results
}
