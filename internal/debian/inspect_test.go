package debian

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/stretchr/testify/require"
)

const sampleControl = "Package: drake-dev\n" +
	"Version: 0.0.20220512082823-1\n" +
	"Architecture: amd64\n" +
	"Depends: liba,\n         libb\n" +
	"Description: Model-based design and verification for robotics.\n" +
	" Long description.\n"

func addArMember(t *testing.T, w *ar.Writer, name string, body []byte) {
	t.Helper()

	require.NoError(t, w.WriteHeader(&ar.Header{
		Name:    name,
		Size:    int64(len(body)),
		Mode:    0o644,
		ModTime: time.Now(),
	}))

	_, err := w.Write(body)
	require.NoError(t, err)
}

func tarGz(t *testing.T, name, body string) []byte {
	t.Helper()

	var buf bytes.Buffer

	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body))}))

	_, err := tw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	return buf.Bytes()
}

// buildDeb assembles a minimal binary package with the given members.
func buildDeb(t *testing.T, members ...[2]any) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())

	for _, m := range members {
		addArMember(t, w, m[0].(string), m[1].([]byte))
	}

	return buf.Bytes()
}

// TestInspect reads the layout and control stanza of a gzip control member.
func TestInspect(t *testing.T) {
	t.Parallel()

	data := buildDeb(t,
		[2]any{MemberDebianBinary, []byte("2.0\n")},
		[2]any{"control.tar.gz", tarGz(t, "./control", sampleControl)},
		[2]any{"data.tar.gz", tarGz(t, "./opt/drake/README", "drake")},
	)

	path := filepath.Join(t.TempDir(), "drake-dev_0.0.20220512082823-1_amd64.deb")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ins, err := InspectFile(path)
	require.NoError(t, err)
	require.Equal(t, FormatVersion, ins.Format)
	require.Equal(t, []string{"debian-binary", "control.tar.gz", "data.tar.gz"}, ins.Members)
	require.Equal(t, "drake-dev", ins.Fields["Package"])
	require.Equal(t, "liba,\n        libb\n", ins.Fields["Depends"])

	require.NoError(t, ins.Verify(Expectation{
		Package:      "drake-dev",
		Version:      "0.0.20220512082823-1",
		Architecture: "amd64",
	}))

	err = ins.Verify(Expectation{Package: "drake-dev", Version: "1.3.0-1"})
	require.ErrorIs(t, err, ErrControlMismatch)
}

// TestInspectUnreadableControl only checks the layout of xz control members.
func TestInspectUnreadableControl(t *testing.T) {
	t.Parallel()

	data := buildDeb(t,
		[2]any{MemberDebianBinary, []byte("2.0\n")},
		[2]any{"control.tar.xz", []byte("not really xz")},
		[2]any{"data.tar.xz", []byte("not really xz")},
	)

	ins, err := Inspect(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "control.tar.xz", ins.ControlMember)
	require.Nil(t, ins.Fields)
	require.NoError(t, ins.Verify(Expectation{Package: "anything"}))
}

// TestInspectRejectsBadLayout covers wrong order, wrong format and non-ar input.
func TestInspectRejectsBadLayout(t *testing.T) {
	t.Parallel()

	control := tarGz(t, "control", sampleControl)

	wrongOrder := buildDeb(t,
		[2]any{"control.tar.gz", control},
		[2]any{MemberDebianBinary, []byte("2.0\n")},
		[2]any{"data.tar.gz", control},
	)
	_, err := Inspect(bytes.NewReader(wrongOrder))
	require.ErrorIs(t, err, ErrNotDebianPackage)

	wrongFormat := buildDeb(t,
		[2]any{MemberDebianBinary, []byte("3.0\n")},
		[2]any{"control.tar.gz", control},
		[2]any{"data.tar.gz", control},
	)
	_, err = Inspect(bytes.NewReader(wrongFormat))
	require.ErrorIs(t, err, ErrNotDebianPackage)

	_, err = Inspect(bytes.NewReader([]byte("fake deb")))
	require.ErrorIs(t, err, ErrNotDebianPackage)
}

// TestParseControl reads the first paragraph and folds continuation lines.
func TestParseControl(t *testing.T) {
	t.Parallel()

	fields, err := ParseControl(strings.NewReader(sampleControl))
	require.NoError(t, err)
	require.Equal(t, "drake-dev", fields["Package"])
	require.Equal(t, "0.0.20220512082823-1", fields["Version"])
	require.Equal(t, "amd64", fields["Architecture"])
	require.Equal(t, "Model-based design and verification for robotics.\nLong description.\n", fields["Description"])

	_, err = ParseControl(strings.NewReader("\n\n"))
	require.ErrorIs(t, err, ErrNotDebianPackage)

	_, err = ParseControl(strings.NewReader("Package drake-dev\n"))
	require.Error(t, err)
}
