// Package config defines the settings shared by repack-deb and
// wheel-builder and provides helpers to load, validate and save them.
//
// Values are layered with viper: built-in defaults, then an optional YAML
// file, then DRAKE_RELEASE_* environment variables. Command-line flags are
// applied on top by the cmd packages.
package config
