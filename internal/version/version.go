package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release-tools version.
	Version = "0.1.0"
	// Commit is the git revision; empty means read it from the build info.
	Commit = ""
	// BuildTime is the UTC build timestamp; empty means the VCS commit time.
	BuildTime = ""
)

// unknown is reported for metadata that neither ldflags nor the build info carry.
const unknown = "unknown"

// Info is the build metadata of the running binary.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
}

// Get returns the build metadata, preferring ldflags values.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	if build, ok := debug.ReadBuildInfo(); ok {
		for _, s := range build.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.BuildTime == "":
				info.BuildTime = s.Value
			}
		}
	}

	if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}

	if info.Commit == "" {
		info.Commit = unknown
	}

	if info.BuildTime == "" {
		info.BuildTime = unknown
	}

	return info
}

// String renders info for the binary named tool.
func (i Info) String(tool string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", tool, i.Version, i.Commit, i.BuildTime, i.GoVersion)
}
