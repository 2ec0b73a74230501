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
	"github.com/lnotspotl/drake/internal/service/repack"
	"github.com/lnotspotl/drake/internal/version"
)

var (
	// archivePath is the release tarball to repackage.
	archivePath string
	// outputDir receives the package.
	outputDir string
	// versionOverride replaces the version derived from VERSION.TXT.
	versionOverride string
	// configPath to the configuration YAML file.
	configPath string
	// codename overrides the host distribution codename.
	codename string
	// resourceDir is searched first for the debian/* templates.
	resourceDir string
	// logLevel is the minimum level written to stderr.
	logLevel string

	// rootCmd represents the base command for repackaging a release.
	rootCmd = &cobra.Command{
		Use:   "repack-deb --tgz ARCHIVE [--output-dir DIR] [--version VERSION]",
		Short: "Repackage a drake binary release as a Debian package",
		Long: `Converts a drake-*.tar.gz binary release into a .deb installing under /opt/drake.

The archive is converted with alien under fakeroot, the generated debian/
metadata is replaced with the bundled templates and the package is built
with debian/rules. The version defaults to 0.0.<timestamp> from VERSION.TXT.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: applyLogLevel,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			options := &repack.Options{
				ArchivePath: archivePath,
				OutputDir:   outputDir,
				Version:     versionOverride,
				Config:      cfg,
			}

			_, err = repack.Run(ctx, options)

			return err
		},
	}
)

// Execute runs the repack-deb CLI. A failed subprocess determines the exit
// status; any other error exits with 1.
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

// applyLogLevel configures the global logger from --log-level.
func applyLogLevel(_ *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevel)
	}

	logger.SetLevel(level)

	return nil
}

// loadConfig resolves the configuration and applies flags given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("codename") {
		cfg.Codename = codename
	}

	if cmd.Flags().Changed("resource-dir") {
		cfg.ResourceDir = resourceDir
	}

	return cfg, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVar(&archivePath, "tgz", "", "path to the drake-*.tar.gz binary release")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", ".", "directory that receives the .deb")
	rootCmd.Flags().StringVar(&versionOverride, "version", "", "package version, used verbatim (default 0.0.<timestamp>)")
	rootCmd.Flags().StringVar(&codename, "codename", "", "distribution codename (default from os-release)")
	rootCmd.Flags().StringVar(&resourceDir, "resource-dir", "", "directory holding the debian/* templates")
	_ = rootCmd.MarkFlagRequired("tgz")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(configCmd)
}
