// Package command runs the external programs the release tools drive
// (fakeroot, alien, debian/rules, container engines, build scripts).
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/lnotspotl/drake/internal/logger"
)

// Cmd describes one subprocess invocation.
type Cmd struct {
	// Name is the program to run, looked up in PATH when it has no slash.
	Name string
	// Args are passed after Name.
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is the complete environment; nil inherits the current process environment.
	Env []string
}

// String renders the command line for logs and errors.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) error
}

// ExitError reports a subprocess that exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

// Unwrap returns the underlying *exec.ExitError.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the subprocess exit status carried by err, if any.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}

	return 0, false
}

// ExecRunner runs commands with os/exec, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner that forwards subprocess output to stderr,
// keeping stdout free for the tools' own results.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stderr,
		Stderr: os.Stderr,
	}
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Cmd) error {
	logger.InfoKV(ctx, "Running command", "command", cmd.String(), "dir", cmd.Dir)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	err := c.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Command: cmd.String(),
			Code:    exitErr.ExitCode(),
			Err:     err,
		}
	}

	return fmt.Errorf("%s: %w", cmd.String(), err)
}

// MergeEnv returns base with overrides applied. Overridden keys are
// removed from base and the overrides are appended in sorted order.
func MergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}

		merged = append(merged, kv)
	}

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		merged = append(merged, key+"="+overrides[key])
	}

	return merged
}
