// Package commandtest provides a command.Runner that records invocations
// instead of executing them.
package commandtest

import (
	"context"
	"sync"

	"github.com/lnotspotl/drake/internal/command"
)

// Recorder records every command it is asked to run. Effect, when set,
// simulates the command and supplies its result.
type Recorder struct {
	Effect func(cmd command.Cmd) error

	mu   sync.Mutex
	cmds []command.Cmd
}

// Run implements command.Runner.
func (r *Recorder) Run(_ context.Context, cmd command.Cmd) error {
	r.mu.Lock()
	r.cmds = append(r.cmds, cmd)
	r.mu.Unlock()

	if r.Effect != nil {
		return r.Effect(cmd)
	}

	return nil
}

// Commands returns the recorded commands in order.
func (r *Recorder) Commands() []command.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]command.Cmd(nil), r.cmds...)
}
