package collab

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
)

// BuildCommands holds the shell commands ShellBuilder runs for each
// build-tool operation.
type BuildCommands struct {
	Build           string
	UnitTest        string
	IntegrationTest string
	Lint            string
}

// ShellBuilder implements Builder by running configured shell commands
// in the workspace, the same way a CI agent would.
type ShellBuilder struct {
	Dir      string
	Commands BuildCommands
}

// NewShellBuilder returns a Builder running cmds in dir.
func NewShellBuilder(dir string, cmds BuildCommands) *ShellBuilder {
	return &ShellBuilder{Dir: dir, Commands: cmds}
}

// Build runs the configured build command.
func (b *ShellBuilder) Build(ctx context.Context) (string, error) {
	return b.sh(ctx, b.Commands.Build)
}

// testSummaryRe matches the surefire-style summary line test runners
// print, e.g. "Tests run: 120, Failures: 2, Errors: 0, Skipped: 3".
var testSummaryRe = regexp.MustCompile(`Tests run: (\d+), Failures: (\d+), Errors: (\d+), Skipped: (\d+)`)

// Test runs the suite's command and parses the summary line into a
// TestReport. A summary that cannot be found yields a zero report; the
// exit status still decides success.
func (b *ShellBuilder) Test(ctx context.Context, suite Suite) (TestReport, string, error) {
	command := b.Commands.UnitTest
	if suite == SuiteIntegration {
		command = b.Commands.IntegrationTest
	}

	out, err := b.sh(ctx, command)
	return parseTestReport(out), out, err
}

// Lint runs the configured static-analysis command.
func (b *ShellBuilder) Lint(ctx context.Context) (string, error) {
	return b.sh(ctx, b.Commands.Lint)
}

// sh runs a single command in a shell (sh -c "cmd") with stdout and
// stderr combined, so the captured log reads like a console.
func (b *ShellBuilder) sh(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = b.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

func parseTestReport(output string) TestReport {
	var report TestReport
	// Sum every summary line; multi-module builds print one per module.
	for _, m := range testSummaryRe.FindAllStringSubmatch(output, -1) {
		run, _ := strconv.Atoi(m[1])
		failures, _ := strconv.Atoi(m[2])
		errors, _ := strconv.Atoi(m[3])
		skipped, _ := strconv.Atoi(m[4])

		report.Failed += failures + errors
		report.Skipped += skipped
		report.Passed += run - failures - errors - skipped
	}
	return report
}
