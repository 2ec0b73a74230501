// Package container drives a docker-compatible container engine for the
// Linux wheel build.
package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/lnotspotl/drake/internal/command"
)

// EngineEnv names the environment variable that forces a specific engine.
const EngineEnv = "DRAKE_CONTAINER_ENGINE"

// ErrNoEngine is returned when neither docker nor podman can be found.
var ErrNoEngine = errors.New("no container engine found: install docker or podman, or set " + EngineEnv)

// Engine represents a detected container runtime (docker or podman).
type Engine struct {
	Path   string // absolute path to the binary
	Name   string // "docker" or "podman"
	Runner command.Runner
}

// DetectEngine finds a container engine. An explicit override wins, then
// the DRAKE_CONTAINER_ENGINE variable, then docker and podman in PATH.
func DetectEngine(override string, runner command.Runner) (*Engine, error) {
	if override == "" {
		override = os.Getenv(EngineEnv)
	}

	if override != "" {
		path, err := exec.LookPath(override)
		if err != nil {
			return nil, fmt.Errorf("container engine %q not found in PATH: %w", override, err)
		}

		return &Engine{Path: path, Name: filepath.Base(override), Runner: runner}, nil
	}

	for _, candidate := range []string{"docker", "podman"} {
		path, err := exec.LookPath(candidate)
		if err == nil {
			return &Engine{Path: path, Name: candidate, Runner: runner}, nil
		}
	}

	return nil, ErrNoEngine
}

// Pull pulls an image if it isn't already present locally.
func (e *Engine) Pull(ctx context.Context, image string) error {
	inspect := command.Cmd{Name: e.Path, Args: []string{"image", "inspect", "--format", "{{.Id}}", image}}
	if err := e.Runner.Run(ctx, inspect); err == nil {
		return nil
	}

	if err := e.Runner.Run(ctx, command.Cmd{Name: e.Path, Args: []string{"pull", image}}); err != nil {
		return fmt.Errorf("pulling image %q: %w", image, err)
	}

	return nil
}

// RunOpts holds optional parameters for running a container.
type RunOpts struct {
	Env     map[string]string // environment variables passed via -e
	Args    []string          // arguments appended after the image
	Volumes []string          // bind mounts passed via -v (host:container[:ro])
	Workdir string            // working directory inside the container
}

// RunArgs returns the engine arguments for a foreground, self-removing run.
func RunArgs(image string, opts *RunOpts) []string {
	args := []string{"run", "--rm"}

	if opts == nil {
		return append(args, image)
	}

	if opts.Workdir != "" {
		args = append(args, "--workdir", opts.Workdir)
	}

	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, "-e", k+"="+opts.Env[k])
	}

	for _, vol := range opts.Volumes {
		args = append(args, "-v", vol)
	}

	args = append(args, image)

	return append(args, opts.Args...)
}

// Run runs image in the foreground and waits for it to exit.
func (e *Engine) Run(ctx context.Context, image string, opts *RunOpts) error {
	if err := e.Runner.Run(ctx, command.Cmd{Name: e.Path, Args: RunArgs(image, opts)}); err != nil {
		return fmt.Errorf("running image %q: %w", image, err)
	}

	return nil
}
