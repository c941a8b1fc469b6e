package collab

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitSourceControl implements SourceControl by shelling out to git in
// a workspace directory.
type GitSourceControl struct {
	Dir string
}

// NewGitSourceControl returns a SourceControl operating on the git
// checkout at dir.
func NewGitSourceControl(dir string) *GitSourceControl {
	return &GitSourceControl{Dir: dir}
}

// Checkout switches the workspace to branch and returns the resulting
// revision id.
func (g *GitSourceControl) Checkout(ctx context.Context, branch string) (string, error) {
	if out, err := g.git(ctx, "checkout", branch); err != nil {
		return "", fmt.Errorf("git checkout %s: %w: %s", branch, err, out)
	}
	rev, err := g.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return rev, nil
}

// CurrentRevisionShort returns the abbreviated HEAD revision.
func (g *GitSourceControl) CurrentRevisionShort(ctx context.Context) (string, error) {
	rev, err := g.git(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse --short: %w", err)
	}
	return rev, nil
}

func (g *GitSourceControl) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return strings.TrimSpace(out.String()), err
}
