package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=..."
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "nss-docker %s (Docker API %s)\n", Version, cfg.APIVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
