package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/abcdlsj/nss-docker/internal/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the DNS server",
	Long: `Answer DNS A queries for container names over UDP and TCP, optionally
exposing Prometheus metrics. The config file is watched and reloaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := server.New(cfg, cfg.File)
		if err != nil {
			return err
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Info("Shutting down", "signal", sig)
			s.Stop()
		}()

		return s.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
