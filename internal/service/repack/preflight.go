package repack

import (
	"context"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/lnotspotl/drake/internal/logger"
)

// warnConcurrentRuns logs a warning when another repack-deb process is
// running. Concurrent runs writing to the same output directory race on the
// package file; nothing prevents them.
func warnConcurrentRuns(ctx context.Context, list func() ([]ps.Process, error), self int) {
	others := concurrentRuns(ctx, list, self)
	if len(others) == 0 {
		return
	}

	logger.WarnKV(ctx, "Another repack-deb process is running; concurrent runs may overwrite each other's output",
		"pids", others)
}

// concurrentRuns returns the pids of other repack-deb processes.
func concurrentRuns(ctx context.Context, list func() ([]ps.Process, error), self int) []int {
	if list == nil {
		return nil
	}

	processes, err := list()
	if err != nil {
		logger.DebugKV(ctx, "Unable to list processes", "error", err)

		return nil
	}

	var pids []int

	for _, p := range processes {
		if p.Pid() == self {
			continue
		}

		if strings.TrimSuffix(p.Executable(), ".exe") != executableName {
			continue
		}

		pids = append(pids, p.Pid())
	}

	return pids
}
