// Package logger wraps zap for the release tools:
//   - a global sugared logger writing console-formatted lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so every
//     pipeline step logs under the name of the binary that runs it,
//   - level parsing for the --log-level flag.
//
// Stdout is left to the subprocesses (alien, debian/rules, container
// engines) whose output is streamed through unchanged.
package logger
