package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lnotspotl/drake/internal/config"
	"github.com/lnotspotl/drake/internal/logger"
)

var (
	// writePath persists the effective configuration instead of printing it.
	writePath string

	// configCmd prints or saves the effective configuration.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if writePath != "" {
				if err = config.Save(writePath, cfg); err != nil {
					return err
				}

				logger.InfoKV(cmd.Context(), "Configuration saved", "path", writePath)

				return nil
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal settings: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	configCmd.Flags().StringVarP(&writePath, "write", "w", "", "save the configuration to this path")
}
