// Package osrelease reads the host distribution codename from an
// os-release(5) file.
package osrelease

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// ErrNoCodename is returned when neither VERSION_CODENAME nor UBUNTU_CODENAME is set.
var ErrNoCodename = errors.New("os-release does not declare a codename")

// Info holds the os-release fields the release tools care about.
type Info struct {
	ID         string
	Name       string
	VersionID  string
	Codename   string
	PrettyName string
}

// Parse reads os-release content from r.
func Parse(r io.Reader) (*Info, error) {
	values, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse os-release: %w", err)
	}

	info := &Info{
		ID:         values["ID"],
		Name:       values["NAME"],
		VersionID:  values["VERSION_ID"],
		Codename:   values["VERSION_CODENAME"],
		PrettyName: values["PRETTY_NAME"],
	}

	// Older Ubuntu releases only carry UBUNTU_CODENAME.
	if info.Codename == "" {
		info.Codename = values["UBUNTU_CODENAME"]
	}

	return info, nil
}

// Load parses the os-release file at path.
func Load(path string) (*Info, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open os-release: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	return Parse(f)
}

// Codename returns override when set, otherwise the codename declared in
// the os-release file at path.
func Codename(override, path string) (string, error) {
	if override != "" {
		return override, nil
	}

	info, err := Load(path)
	if err != nil {
		return "", err
	}

	if info.Codename == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoCodename)
	}

	return info.Codename, nil
}
