package sourcearchive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var markerTime = time.Date(2022, 5, 12, 8, 28, 23, 0, time.UTC)

type testEntry struct {
	name string
	body string
	dir  bool
}

// buildArchive writes a gzip-compressed tar with the given entries.
func buildArchive(t *testing.T, entries ...testEntry) []byte {
	t.Helper()

	var buf bytes.Buffer

	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		header := &tar.Header{
			Name:    e.name,
			Mode:    0o644,
			Size:    int64(len(e.body)),
			ModTime: markerTime,
		}
		if e.dir {
			header.Typeflag = tar.TypeDir
			header.Mode = 0o755
			header.Size = 0
		}

		require.NoError(t, tw.WriteHeader(header))

		if !e.dir {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	return buf.Bytes()
}

// TestEntryNames checks the fixed layout of the release archive.
func TestEntryNames(t *testing.T) {
	t.Parallel()

	require.Equal(t, "drake/share/doc/drake/VERSION.TXT", VersionEntryName("drake"))
	require.Equal(t, "drake/share/drake/setup/packages-focal.txt", PackagesEntryName("drake", "focal"))
}

// TestRead extracts the marker and the dependency list, ignoring "./" prefixes.
func TestRead(t *testing.T) {
	t.Parallel()

	data := buildArchive(t,
		testEntry{name: "./drake/", dir: true},
		testEntry{name: "./drake/lib/libdrake.so", body: "ELF"},
		testEntry{name: "./drake/share/doc/drake/VERSION.TXT", body: "20220512082823 abc123\n"},
		testEntry{name: "./drake/share/drake/setup/packages-focal.txt", body: "liba\nlibb\n"},
		testEntry{name: "./drake/share/drake/setup/packages-jammy.txt", body: "libc\n"},
	)

	path := filepath.Join(t.TempDir(), "drake-20220512-focal.tar.gz")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	contents, err := Read(path, "drake", "focal")
	require.NoError(t, err)
	require.Equal(t, "20220512082823", contents.Version.Timestamp)
	require.Equal(t, "abc123", contents.Version.GitSHA)
	require.True(t, markerTime.Equal(contents.Version.ModTime))
	require.Equal(t, "liba\nlibb\n", contents.Packages)
}

// TestReadUnsupportedCodename fails when the distribution has no dependency list.
func TestReadUnsupportedCodename(t *testing.T) {
	t.Parallel()

	data := buildArchive(t,
		testEntry{name: "drake/share/doc/drake/VERSION.TXT", body: "20220512082823 abc123"},
		testEntry{name: "drake/share/drake/setup/packages-focal.txt", body: "liba"},
	)

	_, err := ReadEntries(bytes.NewReader(data), VersionEntryName("drake"), PackagesEntryName("drake", "bionic"))
	require.ErrorIs(t, err, ErrEntryMissing)
	require.Contains(t, err.Error(), "packages-bionic.txt")
}

// TestReadMalformedMarker rejects markers without exactly two tokens.
func TestReadMalformedMarker(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"", "20220512082823", "20220512082823 abc123 extra"} {
		data := buildArchive(t,
			testEntry{name: "drake/share/doc/drake/VERSION.TXT", body: body},
			testEntry{name: "drake/share/drake/setup/packages-focal.txt", body: "liba"},
		)

		path := filepath.Join(t.TempDir(), "drake.tar.gz")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		_, err := Read(path, "drake", "focal")
		require.ErrorIs(t, err, ErrMalformedVersion, body)
	}
}

// TestReadEntriesNotGzip reports a stream that is not gzip-compressed.
func TestReadEntriesNotGzip(t *testing.T) {
	t.Parallel()

	_, err := ReadEntries(bytes.NewReader([]byte("plain text")), "x")
	require.Error(t, err)
}
