package debian

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"pault.ag/go/debian/control"
)

// Member names of a binary package, in the order dpkg requires.
const (
	MemberDebianBinary  = "debian-binary"
	MemberControlPrefix = "control.tar"
	MemberDataPrefix    = "data.tar"

	// FormatVersion is the only debian-binary content dpkg accepts.
	FormatVersion = "2.0"
)

var (
	// ErrNotDebianPackage is returned when the ar layout is not a binary package.
	ErrNotDebianPackage = errors.New("not a debian binary package")
	// ErrControlMismatch is returned when the control stanza disagrees with the expected values.
	ErrControlMismatch = errors.New("control field mismatch")
)

// Inspection is what Inspect learned about a .deb file.
type Inspection struct {
	// Format is the content of the debian-binary member.
	Format string
	// Members lists the ar member names in order.
	Members []string
	// ControlMember is the name of the control archive member.
	ControlMember string
	// Fields holds the control stanza. It is nil when the control member
	// uses a compression this package does not read (xz, zstd).
	Fields map[string]string
}

// Expectation lists the control values a produced package must carry.
type Expectation struct {
	Package      string
	Version      string
	Architecture string
}

// InspectFile opens path and inspects it.
func InspectFile(path string) (*Inspection, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	return Inspect(f)
}

// Inspect reads a .deb stream and checks its ar layout.
func Inspect(r io.Reader) (*Inspection, error) {
	ins := new(Inspection)
	arR := ar.NewReader(r)

	for {
		header, err := arR.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: read ar header: %w", ErrNotDebianPackage, err)
		}

		// GNU ar terminates member names with a slash.
		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		ins.Members = append(ins.Members, name)

		switch {
		case name == MemberDebianBinary:
			body, err := io.ReadAll(io.LimitReader(arR, header.Size))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}

			ins.Format = strings.TrimSpace(string(body))
		case strings.HasPrefix(name, MemberControlPrefix):
			ins.ControlMember = name

			fields, err := readControlMember(name, io.LimitReader(arR, header.Size))
			if err != nil {
				return nil, err
			}

			ins.Fields = fields
		}
	}

	if err := checkLayout(ins); err != nil {
		return nil, err
	}

	return ins, nil
}

// checkLayout enforces debian-binary, control.tar.*, data.tar.* as the first three members.
func checkLayout(ins *Inspection) error {
	if len(ins.Members) < 3 {
		return fmt.Errorf("%w: %d ar members", ErrNotDebianPackage, len(ins.Members))
	}

	if ins.Members[0] != MemberDebianBinary ||
		!strings.HasPrefix(ins.Members[1], MemberControlPrefix) ||
		!strings.HasPrefix(ins.Members[2], MemberDataPrefix) {
		return fmt.Errorf("%w: unexpected member order %v", ErrNotDebianPackage, ins.Members[:3])
	}

	if ins.Format != FormatVersion {
		return fmt.Errorf("%w: format %q", ErrNotDebianPackage, ins.Format)
	}

	return nil
}

// readControlMember extracts the control file from a control.tar[.gz] member.
func readControlMember(name string, r io.Reader) (map[string]string, error) {
	var tr *tar.Reader

	switch name {
	case MemberControlPrefix:
		tr = tar.NewReader(r)
	case MemberControlPrefix + ".gz":
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}

		defer func() {
			_ = gzr.Close()
		}()

		tr = tar.NewReader(gzr)
	default:
		return nil, nil
	}

	for {
		th, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no control file", ErrNotDebianPackage, name)
		}

		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		if filepath.Base(th.Name) != "control" {
			continue
		}

		return ParseControl(tr)
	}
}

// ParseControl parses the first paragraph of a control file. Continuation
// lines keep the formatting applied by the control package.
func ParseControl(r io.Reader) (map[string]string, error) {
	reader, err := control.NewParagraphReader(r, nil)
	if err != nil {
		return nil, fmt.Errorf("read control: %w", err)
	}

	paragraph, err := reader.Next()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty control file", ErrNotDebianPackage)
	}

	if err != nil {
		return nil, fmt.Errorf("parse control: %w", err)
	}

	return paragraph.Values, nil
}

// Verify compares the inspected control stanza with want. Packages whose
// control member could not be read only get the layout check done by Inspect.
func (ins *Inspection) Verify(want Expectation) error {
	if ins.Fields == nil {
		return nil
	}

	checks := []struct {
		field string
		value string
	}{
		{"Package", want.Package},
		{"Version", want.Version},
		{"Architecture", want.Architecture},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}

		if got := ins.Fields[c.field]; got != c.value {
			return fmt.Errorf("%w: %s is %q, want %q", ErrControlMismatch, c.field, got, c.value)
		}
	}

	return nil
}
