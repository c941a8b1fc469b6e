package collab

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DockerEngine implements ContainerEngine via the docker CLI.
type DockerEngine struct {
	// Dir is the build context for image builds (the workspace).
	Dir string
}

// NewDockerEngine returns a ContainerEngine building from dir.
func NewDockerEngine(dir string) *DockerEngine {
	return &DockerEngine{Dir: dir}
}

// BuildImage builds the workspace Dockerfile into tag.
func (d *DockerEngine) BuildImage(ctx context.Context, tag string) (string, error) {
	out, err := d.docker(ctx, "build", "-t", tag, ".")
	if err != nil {
		return out, fmt.Errorf("docker build %s: %w", tag, err)
	}
	return out, nil
}

// TagImage applies dst as an additional tag for src.
func (d *DockerEngine) TagImage(ctx context.Context, src, dst string) error {
	if out, err := d.docker(ctx, "tag", src, dst); err != nil {
		return fmt.Errorf("docker tag %s %s: %w: %s", src, dst, err, out)
	}
	return nil
}

// Push publishes tag to its registry. Credentials come from the
// ambient docker login, which is outside this system's scope.
func (d *DockerEngine) Push(ctx context.Context, tag string) (string, error) {
	out, err := d.docker(ctx, "push", tag)
	if err != nil {
		return out, fmt.Errorf("docker push %s: %w", tag, err)
	}
	return out, nil
}

// Run starts a detached container named name from image.
func (d *DockerEngine) Run(ctx context.Context, name, image, ports string, env map[string]string) error {
	args := []string{"run", "-d", "--name", name, "-p", ports}
	for k, v := range env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, image)

	if out, err := d.docker(ctx, args...); err != nil {
		return fmt.Errorf("docker run %s: %w: %s", name, err, out)
	}
	return nil
}

// Stop stops the named container. Stopping a container that does not
// exist is not an error; deploys call Stop before replacing.
func (d *DockerEngine) Stop(ctx context.Context, name string) error {
	out, err := d.docker(ctx, "stop", name)
	if err != nil && !strings.Contains(out, "No such container") {
		return fmt.Errorf("docker stop %s: %w: %s", name, err, out)
	}
	return nil
}

// Remove removes the named container, tolerating absence like Stop.
func (d *DockerEngine) Remove(ctx context.Context, name string) error {
	out, err := d.docker(ctx, "rm", name)
	if err != nil && !strings.Contains(out, "No such container") {
		return fmt.Errorf("docker rm %s: %w: %s", name, err, out)
	}
	return nil
}

// IsRunning reports whether the named container is up.
func (d *DockerEngine) IsRunning(ctx context.Context, name string) bool {
	out, err := d.docker(ctx, "inspect", "-f", "{{.State.Running}}", name)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "true"
}

func (d *DockerEngine) docker(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	if d.Dir != "" {
		cmd.Dir = d.Dir
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}
