package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of lookups to show")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent group lookups (requires global.history_db)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.history == nil {
			a.out.Info("lookup history is disabled, set global.history_db in the config file")
			return nil
		}

		rows, err := a.history.RecentLookups(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			a.out.Info("there are no lookups yet")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tCOMMAND\tNETWORK\tGROUP\tTIER\tOUTCOME")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.CreatedAt.Local().Format(time.DateTime), r.Command, r.Network, orDash(r.GroupID), orDash(r.Tier), r.Outcome)
		}
		return tw.Flush()
	},
}
