package sourcearchive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrEntryMissing is returned when a requested entry is not in the archive.
	ErrEntryMissing = errors.New("archive entry not found")
	// ErrMalformedVersion is returned when the version marker is not two tokens.
	ErrMalformedVersion = errors.New("malformed version marker")
)

// maxEntrySize bounds the text entries read into memory.
const maxEntrySize = 16 << 20

// Entry is the content and modification time of an archive member.
type Entry struct {
	Name    string
	Body    []byte
	ModTime time.Time
}

// VersionInfo is the parsed version marker.
type VersionInfo struct {
	// Timestamp is the build timestamp token (YYYYMMDDhhmmss).
	Timestamp string
	// GitSHA is the source revision token.
	GitSHA string
	// ModTime is the marker entry's modification time.
	ModTime time.Time
}

// Contents is what the repackager needs from a release archive.
type Contents struct {
	Version  VersionInfo
	Packages string
}

// VersionEntryName returns the version marker path for product.
func VersionEntryName(product string) string {
	return fmt.Sprintf("%s/share/doc/%s/VERSION.TXT", product, product)
}

// PackagesEntryName returns the dependency list path for product and codename.
func PackagesEntryName(product, codename string) string {
	return fmt.Sprintf("%s/share/%s/setup/packages-%s.txt", product, product, codename)
}

// ReadEntries scans the gzip-compressed tar stream r once and returns the
// requested regular-file entries keyed by name. Leading "./" is ignored
// when matching. Any requested name not found yields ErrEntryMissing.
func ReadEntries(r io.Reader, names ...string) (map[string]Entry, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}

	defer func() {
		_ = gzr.Close()
	}()

	found := make(map[string]Entry, len(names))
	tr := tar.NewReader(gzr)

	for len(found) < len(wanted) {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := strings.TrimPrefix(header.Name, "./")
		if _, ok := wanted[name]; !ok {
			continue
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, io.LimitReader(tr, maxEntrySize)); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		found[name] = Entry{
			Name:    name,
			Body:    buf.Bytes(),
			ModTime: header.ModTime,
		}
	}

	for _, name := range names {
		if _, ok := found[name]; !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrEntryMissing)
		}
	}

	return found, nil
}

// ParseVersionMarker splits the VERSION.TXT content into its timestamp and
// git revision tokens.
func ParseVersionMarker(body string, modTime time.Time) (VersionInfo, error) {
	tokens := strings.Fields(body)
	if len(tokens) != 2 {
		return VersionInfo{}, fmt.Errorf("%w: expected 2 tokens, got %d: %q", ErrMalformedVersion, len(tokens), body)
	}

	return VersionInfo{
		Timestamp: tokens[0],
		GitSHA:    tokens[1],
		ModTime:   modTime,
	}, nil
}

// Read opens the archive at path and extracts the version marker and the
// dependency list for codename.
func Read(path, product, codename string) (*Contents, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	versionName := VersionEntryName(product)
	packagesName := PackagesEntryName(product, codename)

	entries, err := ReadEntries(f, versionName, packagesName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	marker := entries[versionName]

	info, err := ParseVersionMarker(string(marker.Body), marker.ModTime)
	if err != nil {
		return nil, err
	}

	return &Contents{
		Version:  info,
		Packages: string(entries[packagesName].Body),
	}, nil
}
