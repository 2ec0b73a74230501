package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeResource(t *testing.T, root, name, body string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

// TestLocateSearchOrder verifies the first root holding the file wins.
func TestLocateSearchOrder(t *testing.T) {
	t.Parallel()

	first := t.TempDir()
	second := t.TempDir()

	writeResource(t, second, ControlTemplate, "second")
	want := writeResource(t, first, ControlTemplate, "first")
	writeResource(t, second, Copyright, "copyright")

	l := NewLocator("", first, second)
	require.Equal(t, []string{first, second}, l.Roots())

	got, err := l.Locate(ControlTemplate)
	require.NoError(t, err)

	want, err = filepath.EvalSymlinks(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	got, err = l.Locate(Copyright)
	require.NoError(t, err)
	require.Equal(t, "copyright", readFile(t, got))
}

// TestLocateMissing reports ErrMissing for absent names, directories and escaping paths.
func TestLocateMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "debian", "compat"), 0o755))

	l := NewLocator(root)

	_, err := l.Locate(ChangelogTemplate)
	require.ErrorIs(t, err, ErrMissing)

	_, err = l.Locate(Compat)
	require.ErrorIs(t, err, ErrMissing)

	_, err = l.Locate("../etc/passwd")
	require.ErrorIs(t, err, ErrMissing)
}

// TestLocateAll stops at the first missing resource.
func TestLocateAll(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{Compat, ControlTemplate, Copyright} {
		writeResource(t, root, name, name)
	}

	l := NewLocator(root)

	_, err := l.LocateAll(Compat, ControlTemplate, Copyright, ChangelogTemplate)
	require.ErrorIs(t, err, ErrMissing)

	writeResource(t, root, ChangelogTemplate, "changelog")

	paths, err := l.LocateAll(Compat, ControlTemplate, Copyright, ChangelogTemplate)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	require.Equal(t, "changelog", readFile(t, paths[ChangelogTemplate]))
}

// TestDefaultRootsHonoursRunfilesDir checks the runfiles root is derived from $RUNFILES_DIR.
func TestDefaultRootsHonoursRunfilesDir(t *testing.T) {
	t.Setenv("RUNFILES_DIR", "/runfiles")

	roots := DefaultRoots("/explicit")
	require.Equal(t, "/explicit", roots[0])
	require.Contains(t, roots, filepath.Join("/runfiles", "drake", "tools", "release_engineering", "dev"))
	require.Equal(t, "resources", roots[len(roots)-1])
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(contents)
}
