package wheel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lnotspotl/drake/internal/command"
	"github.com/lnotspotl/drake/internal/command/commandtest"
	"github.com/lnotspotl/drake/internal/config"
	"github.com/lnotspotl/drake/internal/container"
)

// TestUnsupportedPlatform names the platform in the error.
func TestUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	runner := &commandtest.Recorder{}

	err := run(context.Background(), &Options{Version: "1.3.0", GOOS: "windows"}, runner)
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
	require.EqualError(t, err, "building wheels is not supported on this platform ('windows')")
	require.Empty(t, runner.Commands())
}

// TestPlatforms lists the supported platforms.
func TestPlatforms(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"darwin", "linux"}, Platforms())
}

// TestHostBackend runs the configured script on macOS.
func TestHostBackend(t *testing.T) {
	t.Parallel()

	runner := &commandtest.Recorder{}
	out := filepath.Join(t.TempDir(), "wheels")

	cfg := config.Default()
	cfg.Wheel.HostScript = "/src/drake/tools/wheel/macos/build-wheels"
	cfg.Wheel.PythonTargets = []string{"3.11"}

	err := run(context.Background(), &Options{
		Version:       "1.3.0",
		OutputDir:     out,
		PythonTargets: []string{"3.12", "3.13"},
		Config:        cfg,
		GOOS:          "darwin",
	}, runner)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	cmds := runner.Commands()
	require.Len(t, cmds, 1)
	require.Equal(t, "/src/drake/tools/wheel/macos/build-wheels", cmds[0].Name)
	require.Equal(t, []string{"--output-dir", out, "--python", "3.12", "--python", "3.13", "1.3.0"}, cmds[0].Args)
	require.Contains(t, cmds[0].Env, "DRAKE_VERSION=1.3.0")
	require.Contains(t, cmds[0].Env, "DRAKE_PYTHON_TARGETS=3.12,3.13")
}

// TestContainerBackend pulls the image and mounts the output directory.
func TestContainerBackend(t *testing.T) {
	t.Parallel()

	runner := &commandtest.Recorder{}
	out := t.TempDir()

	b := &containerBackend{
		engine: &container.Engine{Path: "/usr/bin/docker", Name: "docker", Runner: runner},
		image:  config.DefaultWheelImage,
		script: config.DefaultWheelScript,
	}

	require.NoError(t, b.Build(context.Background(), Request{Version: "1.3.0", OutputDir: out}))

	cmds := runner.Commands()
	require.Len(t, cmds, 2)
	require.Equal(t, []string{"image", "inspect", "--format", "{{.Id}}", config.DefaultWheelImage}, cmds[0].Args)
	require.Equal(t, []command.Cmd{{
		Name: "/usr/bin/docker",
		Args: []string{
			"run", "--rm",
			"--workdir", "/wheel",
			"-e", "DRAKE_VERSION=1.3.0",
			"-v", out + ":" + ContainerOutputDir,
			config.DefaultWheelImage,
			config.DefaultWheelScript, "--output-dir", ContainerOutputDir, "1.3.0",
		},
	}}, cmds[1:])
}

// TestLinuxSelectsContainerEngine detects the engine through PATH.
func TestLinuxSelectsContainerEngine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "podman"), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir)
	t.Setenv(container.EngineEnv, "")

	backend, err := selectBackend(&Options{GOOS: "linux"}, &commandtest.Recorder{})
	require.NoError(t, err)

	cb, ok := backend.(*containerBackend)
	require.True(t, ok)
	require.Equal(t, "podman", cb.engine.Name)
	require.Equal(t, config.DefaultWheelImage, cb.image)
}

// TestVersionRequired rejects a build without a version.
func TestVersionRequired(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &Options{GOOS: "darwin"}, &commandtest.Recorder{})
	require.ErrorIs(t, err, errVersionNotSet)
}
