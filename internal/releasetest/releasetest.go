// Package releasetest builds the release archives and binary packages
// used by the repack-deb tests.
package releasetest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/stretchr/testify/require"
)

// MarkerTime is the modification time given to every archive entry.
var MarkerTime = time.Date(2022, 5, 12, 8, 28, 23, 0, time.UTC)

// File is one regular file of a test archive.
type File struct {
	Name string
	Body string
}

// Release returns the files of a minimal drake release: the version
// marker, the dependency list for codename and one payload file.
func Release(marker, codename, packages string) []File {
	return []File{
		{Name: "drake/share/doc/drake/VERSION.TXT", Body: marker},
		{Name: "drake/share/drake/setup/packages-" + codename + ".txt", Body: packages},
		{Name: "drake/lib/libdrake.so", Body: "ELF"},
	}
}

// TarGz returns a gzip-compressed tar holding files.
func TarGz(t *testing.T, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer

	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, f := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:    f.Name,
			Mode:    0o644,
			Size:    int64(len(f.Body)),
			ModTime: MarkerTime,
		}))

		_, err := tw.Write([]byte(f.Body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	return buf.Bytes()
}

// WriteArchive writes TarGz(files) to dir/name and returns its path.
func WriteArchive(t *testing.T, dir, name string, files ...File) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, TarGz(t, files...), 0o644))

	return path
}

// Deb returns a binary package whose control stanza declares pkg, version and arch.
func Deb(t *testing.T, pkg, version, arch string) []byte {
	t.Helper()

	control := fmt.Sprintf("Package: %s\nVersion: %s\nArchitecture: %s\n", pkg, version, arch)

	var buf bytes.Buffer

	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())

	members := []struct {
		name string
		body []byte
	}{
		{"debian-binary", []byte("2.0\n")},
		{"control.tar.gz", TarGz(t, File{Name: "./control", Body: control})},
		{"data.tar.gz", TarGz(t, File{Name: "./opt/drake/lib/libdrake.so", Body: "ELF"})},
	}

	for _, m := range members {
		require.NoError(t, w.WriteHeader(&ar.Header{
			Name:    m.name,
			Size:    int64(len(m.body)),
			Mode:    0o644,
			ModTime: MarkerTime,
		}))

		_, err := w.Write(m.body)
		require.NoError(t, err)
	}

	return buf.Bytes()
}
