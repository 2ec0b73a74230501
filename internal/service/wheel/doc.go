// Package wheel implements wheel-builder, which hands a wheel build to the
// backend of the host platform: a container on Linux and the host itself
// on macOS. The backends only launch the configured build script.
package wheel
