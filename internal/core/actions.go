package core

import (
	"context"
	"fmt"
	"time"

	"conveyor/internal/collab"
)

// Collaborators bundles the external systems stage actions call into.
type Collaborators struct {
	SCM      collab.SourceControl
	Builder  collab.Builder
	Engine   collab.ContainerEngine
	Store    collab.ArtifactStore
	Notifier collab.Notifier
}

// ActionOptions carries the deployment and archiving knobs actions
// need beyond the run context.
type ActionOptions struct {
	ContainerName  string
	Ports          string
	HealthAttempts int
	HealthInterval time.Duration
	ArtifactFiles  []string
}

// Action kinds a pipeline definition may reference.
const (
	ActionCheckout        = "checkout"
	ActionBuild           = "build"
	ActionTestUnit        = "test-unit"
	ActionTestIntegration = "test-integration"
	ActionLint            = "lint"
	ActionBuildImage      = "build-image"
	ActionPushImage       = "push-image"
	ActionDeploy          = "deploy"
	ActionArchive         = "archive"
)

// BindAction resolves an action kind to the function invoking the
// matching collaborator. Unknown kinds are a definition error.
func BindAction(kind string, c Collaborators, opts ActionOptions) (ActionFunc, error) {
	switch kind {
	case ActionCheckout:
		return func(ctx context.Context, rc *RunContext) ActionResult {
			rev, err := c.SCM.Checkout(ctx, rc.Branch())
			if err != nil {
				return ActionResult{Err: err}
			}
			return ActionResult{Output: fmt.Sprintf("checked out %s at %s\n", rc.Branch(), rev)}
		}, nil

	case ActionBuild:
		return func(ctx context.Context, rc *RunContext) ActionResult {
			out, err := c.Builder.Build(ctx)
			return ActionResult{Output: out, Err: err}
		}, nil

	case ActionTestUnit:
		return testAction(c, collab.SuiteUnit), nil

	case ActionTestIntegration:
		return testAction(c, collab.SuiteIntegration), nil

	case ActionLint:
		return func(ctx context.Context, rc *RunContext) ActionResult {
			out, err := c.Builder.Lint(ctx)
			return ActionResult{Output: out, Err: err}
		}, nil

	case ActionBuildImage:
		return func(ctx context.Context, rc *RunContext) ActionResult {
			out, err := c.Engine.BuildImage(ctx, rc.Env.ImageRef)
			if err != nil {
				return ActionResult{Output: out, Err: err}
			}
			if err := c.Engine.TagImage(ctx, rc.Env.ImageRef, rc.Env.ImageLatestRef); err != nil {
				return ActionResult{Output: out, Err: err}
			}
			return ActionResult{Output: out}
		}, nil

	case ActionPushImage:
		return func(ctx context.Context, rc *RunContext) ActionResult {
			out, err := c.Engine.Push(ctx, rc.Env.ImageRef)
			if err != nil {
				return ActionResult{Output: out, Err: err}
			}
			latestOut, err := c.Engine.Push(ctx, rc.Env.ImageLatestRef)
			return ActionResult{Output: out + latestOut, Err: err}
		}, nil

	case ActionDeploy:
		return deployAction(c, opts), nil

	case ActionArchive:
		return func(ctx context.Context, rc *RunContext) ActionResult {
			location, err := c.Store.Archive(ctx, rc.Env.ArtifactDir, opts.ArtifactFiles, MetadataFor(rc))
			if err != nil {
				return ActionResult{Err: err}
			}
			return ActionResult{Output: fmt.Sprintf("archived %d file(s) to %s\n", len(opts.ArtifactFiles), location)}
		}, nil

	default:
		return nil, fmt.Errorf("unknown stage action %q", kind)
	}
}

func testAction(c Collaborators, suite collab.Suite) ActionFunc {
	return func(ctx context.Context, rc *RunContext) ActionResult {
		report, out, err := c.Builder.Test(ctx, suite)
		return ActionResult{Output: out, Err: err, Report: &report}
	}
}

// deployAction replaces the previous container with the freshly built
// image, then confirms readiness with a bounded poll. An exhausted
// poll is escalated to a stage failure here: this stage's policy is
// that an unconfirmed deployment fails the run.
func deployAction(c Collaborators, opts ActionOptions) ActionFunc {
	return func(ctx context.Context, rc *RunContext) ActionResult {
		if err := c.Engine.Stop(ctx, opts.ContainerName); err != nil {
			return ActionResult{Err: err}
		}
		if err := c.Engine.Remove(ctx, opts.ContainerName); err != nil {
			return ActionResult{Err: err}
		}
		if err := c.Engine.Run(ctx, opts.ContainerName, rc.Env.ImageRef, opts.Ports, nil); err != nil {
			return ActionResult{Err: err}
		}

		probe := func(ctx context.Context) bool {
			return c.Engine.IsRunning(ctx, opts.ContainerName)
		}
		if PollHealth(ctx, probe, opts.HealthAttempts, opts.HealthInterval) == PollTimedOut {
			return ActionResult{Err: ErrNotReady}
		}
		return ActionResult{Output: fmt.Sprintf("deployed %s as %s\n", rc.Env.ImageRef, opts.ContainerName)}
	}
}

// MetadataFor builds the persisted run record from a run context.
func MetadataFor(rc *RunContext) collab.RunMetadata {
	return collab.RunMetadata{
		JobName:   rc.JobName,
		RunNumber: rc.RunNumber,
		Version:   rc.Env.Version,
		Revision:  rc.Env.ShortRevision,
		Branch:    rc.Branch(),
		ImageRef:  rc.Env.ImageRef,
	}
}
