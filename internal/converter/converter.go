package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lnotspotl/drake/internal/command"
)

// ErrDiscovery is returned when the conversion directory does not hold exactly one tree.
var ErrDiscovery = errors.New("unable to discover alien output directory")

// Request describes one archive conversion.
type Request struct {
	// Archive is the absolute path of the release tarball.
	Archive string
	// Version is passed to alien verbatim.
	Version string
	// WorkDir is the empty directory alien runs in.
	WorkDir string
	// Env is the complete subprocess environment.
	Env []string
}

// Converter turns a release archive into a Debian working tree and returns its path.
type Converter interface {
	Convert(ctx context.Context, req Request) (string, error)
}

// Builder builds the binary package inside a working tree.
type Builder interface {
	Build(ctx context.Context, treeDir string, env []string) error
}

// Alien runs alien under fakeroot.
type Alien struct {
	Runner   command.Runner
	Fakeroot string
	Path     string
}

// Args returns the alien arguments for req. --fixperms makes debian/rules
// call dh_fixperms, which repairs the directory permissions of the tarball.
func (a *Alien) Args(req Request) []string {
	return []string{
		a.Path,
		"--to-deb",
		"--single",
		"--version=" + req.Version,
		"--keep-version",
		"--fixperms",
		"--verbose",
		req.Archive,
	}
}

// Convert runs alien in req.WorkDir and discovers the tree it produced.
func (a *Alien) Convert(ctx context.Context, req Request) (string, error) {
	err := a.Runner.Run(ctx, command.Cmd{
		Name: a.Fakeroot,
		Args: a.Args(req),
		Dir:  req.WorkDir,
		Env:  req.Env,
	})
	if err != nil {
		return "", fmt.Errorf("alien: %w", err)
	}

	return DiscoverTree(req.WorkDir)
}

// DiscoverTree returns the only directory directly under parent.
func DiscoverTree(parent string) (string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", parent, err)
	}

	var dirs []string

	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}

	if len(dirs) != 1 {
		sort.Strings(dirs)

		return "", fmt.Errorf("%w: found %d directories in %s %v", ErrDiscovery, len(dirs), parent, dirs)
	}

	return filepath.Join(parent, dirs[0]), nil
}

// DebianRules runs `fakeroot debian/rules binary` in the working tree.
type DebianRules struct {
	Runner   command.Runner
	Fakeroot string
}

// Build runs the binary target; the package lands in the tree's parent directory.
func (d *DebianRules) Build(ctx context.Context, treeDir string, env []string) error {
	err := d.Runner.Run(ctx, command.Cmd{
		Name: d.Fakeroot,
		Args: []string{"debian/rules", "binary"},
		Dir:  treeDir,
		Env:  env,
	})
	if err != nil {
		return fmt.Errorf("debian/rules: %w", err)
	}

	return nil
}
