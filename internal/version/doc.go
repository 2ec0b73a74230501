// Package version reports which build of the release tools produced a
// package. Version, Commit and BuildTime are set with ldflags
// (-X github.com/lnotspotl/drake/internal/version.Commit=...); builds
// without them fall back to the VCS stamp recorded by the Go toolchain.
package version
