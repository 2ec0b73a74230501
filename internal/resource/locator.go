package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Logical names of the Debian metadata templates.
const (
	Compat            = "debian/compat"
	ControlTemplate   = "debian/control.in"
	Copyright         = "debian/copyright"
	ChangelogTemplate = "debian/changelog.in"
)

// RunfilesPrefix is the location of the templates inside a runfiles tree.
const RunfilesPrefix = "drake/tools/release_engineering/dev"

// ErrMissing is returned when a resource is not present under any root.
var ErrMissing = errors.New("missing resource")

// Locator resolves logical names against an ordered list of root directories.
type Locator struct {
	roots []string
}

// NewLocator creates a Locator searching roots in the given order.
// Empty roots are skipped.
func NewLocator(roots ...string) *Locator {
	l := &Locator{roots: make([]string, 0, len(roots))}
	for _, root := range roots {
		if root != "" {
			l.roots = append(l.roots, root)
		}
	}

	return l
}

// DefaultRoots returns the search roots used by the tools: the explicit
// resource directory, the runfiles tree from $RUNFILES_DIR or next to the
// executable, a resources directory next to the executable and finally
// ./resources.
func DefaultRoots(resourceDir string) []string {
	roots := []string{resourceDir}

	if dir := os.Getenv("RUNFILES_DIR"); dir != "" {
		roots = append(roots, filepath.Join(dir, filepath.FromSlash(RunfilesPrefix)))
	}

	if exe, err := os.Executable(); err == nil {
		roots = append(roots,
			filepath.Join(exe+".runfiles", filepath.FromSlash(RunfilesPrefix)),
			filepath.Join(filepath.Dir(exe), "resources"),
		)
	}

	return append(roots, "resources")
}

// Roots returns the directories searched by l.
func (l *Locator) Roots() []string {
	return append([]string(nil), l.roots...)
}

// Locate returns the absolute, symlink-resolved path of name.
func (l *Locator) Locate(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if filepath.IsAbs(rel) || strings.HasPrefix(filepath.Clean(rel), "..") {
		return "", fmt.Errorf("%s: resource names must be relative: %w", name, ErrMissing)
	}

	for _, root := range l.roots {
		candidate := filepath.Join(root, rel)

		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}

		resolved, err := filepath.EvalSymlinks(candidate)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", candidate, err)
		}

		return filepath.Abs(resolved)
	}

	return "", fmt.Errorf("%s (searched %s): %w", name, strings.Join(l.roots, ", "), ErrMissing)
}

// LocateAll resolves every name, failing on the first one that is missing.
func (l *Locator) LocateAll(names ...string) (map[string]string, error) {
	paths := make(map[string]string, len(names))

	for _, name := range names {
		path, err := l.Locate(name)
		if err != nil {
			return nil, err
		}

		paths[name] = path
	}

	return paths, nil
}
