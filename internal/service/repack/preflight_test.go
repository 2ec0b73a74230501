package repack

import (
	"context"
	"errors"
	"testing"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

// TestConcurrentRuns reports other repack-deb processes but never itself.
func TestConcurrentRuns(t *testing.T) {
	t.Parallel()

	list := func() ([]ps.Process, error) {
		return []ps.Process{
			fakeProcess{pid: 10, name: "repack-deb"},
			fakeProcess{pid: 11, name: "bash"},
			fakeProcess{pid: 12, name: "repack-deb.exe"},
			fakeProcess{pid: 13, name: "repack-deb"},
		}, nil
	}

	require.Equal(t, []int{12, 13}, concurrentRuns(context.Background(), list, 10))
	require.Equal(t, []int{10, 12, 13}, concurrentRuns(context.Background(), list, 99))
}

// TestConcurrentRunsListFailure treats an unreadable process table as no conflict.
func TestConcurrentRunsListFailure(t *testing.T) {
	t.Parallel()

	failing := func() ([]ps.Process, error) {
		return nil, errors.New("permission denied")
	}

	require.Empty(t, concurrentRuns(context.Background(), failing, 1))
	require.Empty(t, concurrentRuns(context.Background(), nil, 1))

	warnConcurrentRuns(context.Background(), failing, 1)
}
