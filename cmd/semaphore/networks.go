package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the supported networks and their endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NETWORK\tSUBGRAPH\tRPC\tCONTRACT")
		for _, name := range a.cfg.NetworkNames() {
			n := a.cfg.Networks[name]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, orDash(n.SubgraphURL), orDash(n.RPCURL), orDash(n.Contract))
		}
		return tw.Flush()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
