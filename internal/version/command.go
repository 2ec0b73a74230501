package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand adds a `version` subcommand to root. With
// --short it prints only the version number, for use in release scripts.
func AttachCobraVersionCommand(root *cobra.Command) {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := Get()
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), info.Version)

				return
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), info.String(root.Name()))
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")

	root.AddCommand(cmd)
}
