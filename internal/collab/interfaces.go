// Package collab defines the external collaborators the pipeline
// orchestrates: source control, the build tool, the container engine,
// the artifact store, and the notification channel. The runner only
// ever sees these interfaces; production adapters shell out to the
// real tools and tests substitute fakes.
package collab

import "context"

// Suite selects which test suite the Builder runs.
type Suite string

const (
	SuiteUnit        Suite = "unit"
	SuiteIntegration Suite = "integration"
)

// TestReport summarizes a test run. A report with Failed > 0 from a
// command that still exited zero marks the run unstable rather than
// failed.
type TestReport struct {
	Passed  int
	Failed  int
	Skipped int
}

// SourceControl checks out and inspects the source repository.
type SourceControl interface {
	// Checkout checks out the given branch and returns the full revision id.
	Checkout(ctx context.Context, branch string) (string, error)
	// CurrentRevisionShort returns the abbreviated revision id of the
	// current checkout. Callers fall back to "unknown" on error.
	CurrentRevisionShort(ctx context.Context) (string, error)
}

// Builder invokes the project's build tool.
type Builder interface {
	// Build compiles and packages the project, returning captured output.
	Build(ctx context.Context) (string, error)
	// Test runs the given suite. The report is valid even when err is
	// nil and contains failures; that combination marks instability.
	Test(ctx context.Context, suite Suite) (TestReport, string, error)
	// Lint runs static checks. Lint stages are best-effort.
	Lint(ctx context.Context) (string, error)
}

// ContainerEngine builds, publishes and runs container images.
type ContainerEngine interface {
	BuildImage(ctx context.Context, tag string) (string, error)
	TagImage(ctx context.Context, src, dst string) error
	Push(ctx context.Context, tag string) (string, error)
	// Run starts a detached container. ports is a host:container mapping.
	Run(ctx context.Context, name, image, ports string, env map[string]string) error
	Stop(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	// IsRunning reports whether the named container is up. Used as the
	// readiness probe during deployment.
	IsRunning(ctx context.Context, name string) bool
}

// RunMetadata is the per-run record persisted into the artifact
// location. The six identity fields are required for traceability.
type RunMetadata struct {
	JobName   string
	RunNumber int
	Version   string
	Revision  string
	Branch    string
	ImageRef  string
	// Checksums maps archived file names to their SHA-256 checksums.
	Checksums map[string]string
}

// ArtifactStore archives build outputs and run records. The dir
// argument is the run's artifact directory, derived once during
// environment resolution.
type ArtifactStore interface {
	// Archive copies the given files into dir and writes the metadata
	// record there. It returns the artifact location. Missing source
	// files are an ArchiveError.
	Archive(ctx context.Context, dir string, files []string, meta RunMetadata) (string, error)
	// SaveStageLog persists captured stage output under dir and
	// returns its path.
	SaveStageLog(dir, stage, output string) (string, error)
}

// Notification is one outbound post-run message.
type Notification struct {
	Subject    string
	Body       string
	Recipients []string
}

// Notifier delivers notifications. Delivery failures are logged by the
// caller, never escalated.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
