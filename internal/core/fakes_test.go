package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"conveyor/internal/collab"
)

// The fakes below substitute every external collaborator so runner
// behavior can be exercised without git, a build tool, or a container
// engine. They record calls for assertions.

type fakeSCM struct {
	rev         string
	revErr      error
	checkoutErr error

	mu        sync.Mutex
	checkouts []string
}

func (f *fakeSCM) Checkout(ctx context.Context, branch string) (string, error) {
	f.mu.Lock()
	f.checkouts = append(f.checkouts, branch)
	f.mu.Unlock()
	if f.checkoutErr != nil {
		return "", f.checkoutErr
	}
	return f.rev + "full", nil
}

func (f *fakeSCM) CurrentRevisionShort(ctx context.Context) (string, error) {
	if f.revErr != nil {
		return "", f.revErr
	}
	return f.rev, nil
}

type fakeBuilder struct {
	buildErr   error
	buildDelay time.Duration
	unitReport collab.TestReport
	unitErr    error
	integErr   error
	lintErr    error

	// buildStarted and buildRelease, when set, make Build block so
	// concurrency can be observed.
	buildStarted chan struct{}
	buildRelease chan struct{}

	mu    sync.Mutex
	calls []string
}

func (f *fakeBuilder) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBuilder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBuilder) Build(ctx context.Context) (string, error) {
	f.record("build")
	if f.buildStarted != nil {
		close(f.buildStarted)
		<-f.buildRelease
	}
	if f.buildDelay > 0 {
		time.Sleep(f.buildDelay)
	}
	return "BUILD SUCCESS\n", f.buildErr
}

func (f *fakeBuilder) Test(ctx context.Context, suite collab.Suite) (collab.TestReport, string, error) {
	f.record("test-" + string(suite))
	if suite == collab.SuiteIntegration {
		return collab.TestReport{Passed: 12}, "integration output\n", f.integErr
	}
	return f.unitReport, "unit output\n", f.unitErr
}

func (f *fakeBuilder) Lint(ctx context.Context) (string, error) {
	f.record("lint")
	return "lint output\n", f.lintErr
}

type fakeEngine struct {
	buildErr error
	pushErr  error
	runErr   error
	// readyAfter is how many IsRunning probes fail before the
	// container reports running. Negative means never ready.
	readyAfter int

	mu      sync.Mutex
	probes  int
	pushes  []string
	started []string
	stopped []string
	removed []string
	tags    [][2]string
}

func (f *fakeEngine) BuildImage(ctx context.Context, tag string) (string, error) {
	return "image built\n", f.buildErr
}

func (f *fakeEngine) TagImage(ctx context.Context, src, dst string) error {
	f.mu.Lock()
	f.tags = append(f.tags, [2]string{src, dst})
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Push(ctx context.Context, tag string) (string, error) {
	f.mu.Lock()
	f.pushes = append(f.pushes, tag)
	f.mu.Unlock()
	return "pushed\n", f.pushErr
}

func (f *fakeEngine) Run(ctx context.Context, name, image, ports string, env map[string]string) error {
	f.mu.Lock()
	f.started = append(f.started, image)
	f.mu.Unlock()
	return f.runErr
}

func (f *fakeEngine) Stop(ctx context.Context, name string) error {
	f.mu.Lock()
	f.stopped = append(f.stopped, name)
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Remove(ctx context.Context, name string) error {
	f.mu.Lock()
	f.removed = append(f.removed, name)
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) IsRunning(ctx context.Context, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.readyAfter < 0 {
		return false
	}
	return f.probes > f.readyAfter
}

type fakeStore struct {
	archiveErr error

	mu       sync.Mutex
	logs     map[string]string
	metas    []collab.RunMetadata
	archived [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{logs: make(map[string]string)}
}

func (f *fakeStore) Archive(ctx context.Context, dir string, files []string, meta collab.RunMetadata) (string, error) {
	if f.archiveErr != nil {
		return "", f.archiveErr
	}
	f.mu.Lock()
	f.metas = append(f.metas, meta)
	f.archived = append(f.archived, files)
	f.mu.Unlock()
	return dir, nil
}

func (f *fakeStore) SaveStageLog(dir, stage, output string) (string, error) {
	f.mu.Lock()
	f.logs[stage] = output
	f.mu.Unlock()
	return fmt.Sprintf("%s/%s.log", dir, stage), nil
}

func (f *fakeStore) metadataCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.metas)
}

type fakeNotifier struct {
	err error

	mu   sync.Mutex
	sent []collab.Notification
}

func (f *fakeNotifier) Send(ctx context.Context, n collab.Notification) error {
	f.mu.Lock()
	f.sent = append(f.sent, n)
	f.mu.Unlock()
	return f.err
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) lastSubject() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Subject
}

var errBoom = errors.New("boom")
