package wheel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/lnotspotl/drake/internal/command"
	"github.com/lnotspotl/drake/internal/config"
	"github.com/lnotspotl/drake/internal/logger"
)

// Options contains inputs for the wheel-builder entry point.
type Options struct {
	// Version is the version stamped into the wheels.
	Version string
	// OutputDir receives the wheels; it is created when missing.
	OutputDir string
	// PythonTargets overrides the configured python versions.
	PythonTargets []string
	// Config holds the backend settings; nil means config.Default().
	Config *config.Config
	// GOOS selects the backend; empty means runtime.GOOS.
	GOOS string
}

// Request is what every backend receives.
type Request struct {
	Version       string
	OutputDir     string
	PythonTargets []string
}

// Backend builds wheels on one platform.
type Backend interface {
	Build(ctx context.Context, req Request) error
}

// Factory creates the backend of a platform.
type Factory func(cfg *config.Config, runner command.Runner) (Backend, error)

var (
	// ErrUnsupportedPlatform is returned for platforms without a backend.
	ErrUnsupportedPlatform = errors.New("building wheels is not supported on this platform")
	// errVersionNotSet is returned when no version was given.
	errVersionNotSet = errors.New("wheel version is not set")
)

// platforms maps GOOS values to their backend.
var platforms = map[string]Factory{
	"linux":  newContainerBackend,
	"darwin": newHostBackend,
}

// Platforms returns the GOOS values wheel-builder supports.
func Platforms() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Run dispatches the build to the backend of the host platform.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "wheel-builder")

	return run(ctx, opts, command.NewExecRunner())
}

func run(ctx context.Context, opts *Options, runner command.Runner) error {
	backend, err := selectBackend(opts, runner)
	if err != nil {
		return err
	}

	req, err := newRequest(opts)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Building wheels", "version", req.Version, "output", req.OutputDir, "python", req.PythonTargets)

	if err = os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err = backend.Build(ctx, req); err != nil {
		return fmt.Errorf("build wheels: %w", err)
	}

	logger.Info(ctx, "Wheels built successfully")

	return nil
}

// selectBackend picks the backend for opts.GOOS.
func selectBackend(opts *Options, runner command.Runner) (Backend, error) {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	factory, ok := platforms[goos]
	if !ok {
		return nil, fmt.Errorf("%w ('%s')", ErrUnsupportedPlatform, goos)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return factory(cfg, runner)
}

func newRequest(opts *Options) (Request, error) {
	if opts.Version == "" {
		return Request{}, errVersionNotSet
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return Request{}, fmt.Errorf("resolve output directory: %w", err)
	}

	targets := opts.PythonTargets
	if len(targets) == 0 && opts.Config != nil {
		targets = opts.Config.Wheel.PythonTargets
	}

	return Request{
		Version:       opts.Version,
		OutputDir:     outputDir,
		PythonTargets: targets,
	}, nil
}
