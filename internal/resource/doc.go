// Package resource maps logical resource names such as "debian/control.in"
// to files on disk.
//
// The tools can run from a Bazel runfiles tree, from an installed layout
// with a resources directory next to the binary, or with an explicit
// resource directory; the Locator searches those roots in order.
package resource
