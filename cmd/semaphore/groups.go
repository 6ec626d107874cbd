package main

import (
	"github.com/spf13/cobra"
)

var getGroupsNetwork string

func init() {
	getGroupsCmd.Flags().StringVarP(&getGroupsNetwork, "network", "n", "", "Supported Ethereum network")
}

var getGroupsCmd = &cobra.Command{
	Use:   "get-groups",
	Short: "Get the list of groups from a supported network (e.g. sepolia or arbitrum)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		network, ok, err := a.resolveNetwork(getGroupsNetwork)
		if err != nil || !ok {
			return err
		}

		ids, ok := a.groupIDs(cmd.Context(), network)
		if !ok {
			return nil
		}
		a.out.GroupIDs(ids)
		return nil
	},
}
