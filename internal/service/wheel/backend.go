package wheel

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/lnotspotl/drake/internal/command"
	"github.com/lnotspotl/drake/internal/config"
	"github.com/lnotspotl/drake/internal/container"
)

// ContainerOutputDir is where the output directory is mounted inside the build container.
const ContainerOutputDir = "/wheel/output"

// Environment passed to the build scripts.
const (
	envVersion       = "DRAKE_VERSION"
	envPythonTargets = "DRAKE_PYTHON_TARGETS"
)

// osEnviron is the base environment of the host build script.
var osEnviron = os.Environ

// containerBackend runs the build script inside the configured image.
type containerBackend struct {
	engine *container.Engine
	image  string
	script string
}

func newContainerBackend(cfg *config.Config, runner command.Runner) (Backend, error) {
	engine, err := container.DetectEngine(cfg.Wheel.Engine, runner)
	if err != nil {
		return nil, err
	}

	return &containerBackend{
		engine: engine,
		image:  cfg.Wheel.Image,
		script: cfg.Wheel.Script,
	}, nil
}

// Build pulls the image when needed and runs the script in a throwaway
// container, from the directory holding the script.
func (b *containerBackend) Build(ctx context.Context, req Request) error {
	if err := b.engine.Pull(ctx, b.image); err != nil {
		return err
	}

	return b.engine.Run(ctx, b.image, &container.RunOpts{
		Env:     scriptEnv(req),
		Volumes: []string{req.OutputDir + ":" + ContainerOutputDir},
		Args:    scriptArgs(b.script, req, ContainerOutputDir),
		Workdir: path.Dir(b.script),
	})
}

// hostBackend runs the build script directly on the host.
type hostBackend struct {
	runner command.Runner
	script string
}

func newHostBackend(cfg *config.Config, runner command.Runner) (Backend, error) {
	return &hostBackend{
		runner: runner,
		script: cfg.Wheel.HostScript,
	}, nil
}

// Build runs the host script with the host output directory.
func (b *hostBackend) Build(ctx context.Context, req Request) error {
	args := scriptArgs(b.script, req, req.OutputDir)

	err := b.runner.Run(ctx, command.Cmd{
		Name: args[0],
		Args: args[1:],
		Env:  command.MergeEnv(osEnviron(), scriptEnv(req)),
	})
	if err != nil {
		return fmt.Errorf("host build: %w", err)
	}

	return nil
}

// scriptArgs returns: script --output-dir DIR [--python V]... VERSION.
func scriptArgs(script string, req Request, outputDir string) []string {
	args := []string{script, "--output-dir", outputDir}

	for _, target := range req.PythonTargets {
		args = append(args, "--python", target)
	}

	return append(args, req.Version)
}

func scriptEnv(req Request) map[string]string {
	env := map[string]string{envVersion: req.Version}
	if len(req.PythonTargets) > 0 {
		env[envPythonTargets] = strings.Join(req.PythonTargets, ",")
	}

	return env
}
