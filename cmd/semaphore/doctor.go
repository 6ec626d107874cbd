package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devblac/semaphore-cli/internal/config"
	"github.com/devblac/semaphore-cli/internal/health"
)

var doctorNetwork string

func init() {
	doctorCmd.Flags().StringVarP(&doctorNetwork, "network", "n", "", "Check a single network (default all)")
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check subgraph and RPC connectivity for the supported networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		names := a.cfg.NetworkNames()
		if doctorNetwork != "" {
			if !config.IsSupported(doctorNetwork) {
				a.out.Error("the network '%s' is not supported", doctorNetwork)
				return fmt.Errorf("doctor: unsupported network %s", doctorNetwork)
			}
			names = []string{doctorNetwork}
		}

		targets := make([]health.Target, 0, len(names))
		for _, name := range names {
			n := a.cfg.Networks[name]
			targets = append(targets, health.Target{
				Network:  name,
				Subgraph: n.SubgraphURL != "",
				RPC:      n.RPCURL != "",
			})
		}

		checker := health.Checker{
			Subgraph: a.subgraphPing,
			RPC:      a.rpcPing,
			Timeout:  a.timeout,
		}
		if a.history != nil {
			checker.DBPing = a.history.Ping
		}

		out := cmd.OutOrStdout()
		rep := checker.Run(cmd.Context(), targets)
		for _, r := range rep.Results {
			label := r.Component
			if r.Network != "" {
				label = r.Network + " " + r.Component
			}
			switch r.Status {
			case health.StatusOK:
				if r.Block > 0 {
					fmt.Fprintf(out, "- %s: block %d OK (%s)\n", label, r.Block, r.Latency.Round(time.Millisecond))
				} else {
					fmt.Fprintf(out, "- %s: OK\n", label)
				}
			case health.StatusFail:
				fmt.Fprintf(out, "- %s: ERROR %v\n", label, r.Err)
			default:
				fmt.Fprintf(out, "- %s: not configured\n", label)
			}
		}

		if !rep.OK() {
			return fmt.Errorf("doctor: %d check(s) failed", rep.Failed())
		}
		fmt.Fprintln(out, "doctor: success")
		return nil
	},
}
