package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"conveyor/internal/collab"
	"conveyor/internal/logging"
)

// EnvironmentResolver derives the run-scoped environment from the
// resolved parameters and a single source-control query. All
// derivations are pure; they run exactly once per run.
type EnvironmentResolver struct {
	SCM      collab.SourceControl
	AppName  string
	Registry string
	// ArtifactBase is the root the per-run artifact directory is
	// templated under.
	ArtifactBase string
	Log          *logging.Logger
}

// Resolve computes the environment for rc. The revision query fails
// soft: an SCM error yields the literal "unknown" and never aborts
// the run.
func (er *EnvironmentResolver) Resolve(ctx context.Context, rc *RunContext) Environment {
	shortRev, err := er.SCM.CurrentRevisionShort(ctx)
	if err != nil || shortRev == "" {
		er.Log.Warn("revision query failed, using fallback", "error", err)
		shortRev = "unknown"
	}

	image := er.AppName
	if er.Registry != "" {
		image = er.Registry + "/" + er.AppName
	}

	version := fmt.Sprintf("%d-%s", rc.RunNumber, shortRev)
	return Environment{
		ShortRevision:  shortRev,
		Version:        version,
		ImageRef:       fmt.Sprintf("%s:%s", image, version),
		ImageLatestRef: fmt.Sprintf("%s:latest", image),
		ArtifactDir:    filepath.Join(er.ArtifactBase, rc.JobName, strconv.Itoa(rc.RunNumber)),
	}
}
