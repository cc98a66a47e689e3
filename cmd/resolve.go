package cmd

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/abcdlsj/nss-docker/pkg/hostent"
	"github.com/abcdlsj/nss-docker/pkg/nss"
	"github.com/abcdlsj/nss-docker/pkg/resolver"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var (
	family  string
	bufSize int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME...",
	Short: "Resolve container names the way the NSS module does",
	Long: `Run each NAME through the same lookup the libnss_docker module performs
and print the address, or the NSS status and the reason it was not found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		af, err := parseFamily(family)
		if err != nil {
			return err
		}
		if bufSize < 0 {
			return fmt.Errorf("buffer size must not be negative, got %d", bufSize)
		}

		r, client, err := cfg.NewResolver(resolver.LogObserver{})
		if err != nil {
			return err
		}
		defer client.Close()

		m := nss.New(r)
		out := cmd.OutOrStdout()

		failed := 0
		for _, name := range args {
			buf := make([]byte, bufSize)
			reply := m.GetHostByName2(context.Background(), name, af, hostent.Region{Buf: buf})

			if reply.Status != nss.StatusSuccess {
				failed++
				fmt.Fprintf(out, "%s\t%s\t%s\n", name, reply.Status, reason(reply))
				continue
			}

			addr := netip.AddrFrom4([4]byte(reply.Record.AddrList[0]))
			fmt.Fprintf(out, "%s\t%s\n", reply.Record.Name, addr)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d names not resolved", failed, len(args))
		}
		return nil
	},
}

func parseFamily(s string) (int, error) {
	switch s {
	case "inet", "4":
		return unix.AF_INET, nil
	case "inet6", "6":
		return unix.AF_INET6, nil
	default:
		return 0, fmt.Errorf("unknown address family %q", s)
	}
}

func reason(reply nss.Reply) string {
	if reply.Result.Err != nil {
		return reply.Result.Err.Error()
	}
	if reply.Status == nss.StatusNotFound && reply.Result.Outcome == resolver.NotOurDomain {
		return "not a " + cfg.Suffix + " name"
	}
	return reply.Errno.Error()
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&family, "family", "f", "inet", "Address family to ask for (inet or inet6)")
	resolveCmd.Flags().IntVar(&bufSize, "buffer", 1024, "Size of the hostent buffer handed to the module")
}
