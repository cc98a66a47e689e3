package cmd

import (
	"github.com/abcdlsj/nss-docker/pkg/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "nss-docker",
		Short: "Resolve <container>.docker names to container addresses",
		Long: `nss-docker resolves host names of the form <container>.docker to the
bridge network IPv4 address of a running Docker container.

The same resolver backs the libnss_docker NSS module, the resolve command
and a small DNS server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c

			log.SetLevel(cfg.Level())
			if cfg.File != "" {
				log.Debug("Using config file", "path", cfg.File)
			}
			return nil
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Configure logger
	log.SetReportTimestamp(true)
	log.SetTimeFormat("2006-01-02 15:04:05")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/nss-docker/config.yaml)")
}
