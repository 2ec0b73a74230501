package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lnotspotl/drake/internal/command"
	"github.com/lnotspotl/drake/internal/config"
	"github.com/lnotspotl/drake/internal/logger"
	"github.com/lnotspotl/drake/internal/service/wheel"
	"github.com/lnotspotl/drake/internal/version"
)

var (
	// outputDir receives the wheels.
	outputDir string
	// pythonTargets restricts the build to these python versions.
	pythonTargets []string
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is the minimum level written to stderr.
	logLevel string

	// rootCmd represents the base command for building wheels.
	rootCmd = &cobra.Command{
		Use:   "wheel-builder VERSION",
		Short: "Build drake wheels for the host platform",
		Long: `Builds drake wheels with the backend of the host platform.

On Linux the build script runs in a container (docker or podman, or the
engine named by DRAKE_CONTAINER_ENGINE). On macOS it runs on the host.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			options := &wheel.Options{
				Version:       args[0],
				OutputDir:     outputDir,
				PythonTargets: pythonTargets,
				Config:        cfg,
			}

			return wheel.Run(ctx, options)
		},
	}
)

// Execute runs the wheel-builder CLI. A failed build script determines the
// exit status; any other error exits with 1.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	logger.Error(context.Background(), err.Error())

	if code, ok := command.ExitCode(err); ok && code > 0 {
		os.Exit(code)
	}

	os.Exit(1)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory that receives the wheels")
	rootCmd.Flags().StringSliceVar(&pythonTargets, "python", nil, "python version to build for (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}
