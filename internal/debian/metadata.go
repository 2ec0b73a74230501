package debian

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"pault.ag/go/debian/version"
)

// ChangelogDateFormat matches the RFC 2822 dates dpkg-parsechangelog expects.
const ChangelogDateFormat = "Mon, 02 Jan 2006 15:04:05 -0000"

// dependsSeparator joins dependency lines; the indentation aligns the
// continuation lines under the first entry after "Depends: ".
const dependsSeparator = ",\n         "

// ErrInvalidVersion is returned for versions dpkg would reject.
var ErrInvalidVersion = errors.New("invalid debian version")

// ControlData is the data available to the control template.
type ControlData struct {
	Package      string
	Architecture string
	Depends      string
}

// ChangelogData is the data available to the changelog template.
type ChangelogData struct {
	Package  string
	Version  string
	Revision string
	GitSHA   string
	Date     string
}

// DefaultVersion returns the version used when no override is given.
func DefaultVersion(prefix, timestamp string) string {
	return prefix + timestamp
}

// EffectiveVersion returns override when set, otherwise DefaultVersion.
func EffectiveVersion(override, prefix, timestamp string) string {
	if override != "" {
		return override
	}

	return DefaultVersion(prefix, timestamp)
}

// ValidateVersion checks that v, and v with revision appended, parse as
// Debian versions and that the revision survives as the final component.
func ValidateVersion(v, revision string) error {
	if _, err := version.Parse(v); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidVersion, v, err)
	}

	full := v + "-" + revision

	parsed, err := version.Parse(full)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidVersion, full, err)
	}

	if parsed.Revision != revision {
		return fmt.Errorf("%w %q: revision parsed as %q", ErrInvalidVersion, full, parsed.Revision)
	}

	return nil
}

// FormatDepends turns a one-package-per-line list into the Depends block.
// Trailing whitespace is stripped first so the last entry has no comma;
// debian/rules fails on a dangling separator.
func FormatDepends(packages string) string {
	return strings.ReplaceAll(strings.TrimRight(packages, " \t\r\n"), "\n", dependsSeparator)
}

// FormatChangelogDate renders t the way the changelog trailer line expects.
func FormatChangelogDate(t time.Time) string {
	return t.UTC().Format(ChangelogDateFormat)
}

// PackageFilename returns the file name debian/rules gives the package.
// dpkg-deb leaves the epoch out of file names.
func PackageFilename(pkg, v, revision, arch string) string {
	if _, upstream, ok := strings.Cut(v, ":"); ok {
		v = upstream
	}

	return fmt.Sprintf("%s_%s-%s_%s.deb", pkg, v, revision, arch)
}

// RenderControl executes the control template.
func RenderControl(text string, data ControlData) (string, error) {
	return render("control", text, data)
}

// RenderChangelog executes the changelog template.
func RenderChangelog(text string, data ChangelogData) (string, error) {
	return render("changelog", text, data)
}

func render(name, text string, data any) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}

	return buf.String(), nil
}
