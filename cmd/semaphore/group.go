package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devblac/semaphore-cli/internal/group"
	"github.com/devblac/semaphore-cli/internal/ui"
)

// groupCommand describes one of the group data commands.
type groupCommand struct {
	use     string
	short   string
	fields  group.Fields
	spinner string
	render  func(p *ui.Printer, g *group.Group)
}

var (
	getGroupCmd = newGroupCommand(groupCommand{
		use:     "get-group",
		short:   "Get the data of a group from a supported network (e.g. sepolia or arbitrum)",
		fields:  group.Fields{Admin: true},
		spinner: "Fetching group %s",
		render:  func(p *ui.Printer, g *group.Group) { p.Group(g) },
	})
	getMembersCmd = newGroupCommand(groupCommand{
		use:     "get-members",
		short:   "Get the members of a group from a supported network (e.g. sepolia or arbitrum)",
		fields:  group.Fields{Members: true},
		spinner: "Fetching members of group %s",
		render:  func(p *ui.Printer, g *group.Group) { p.Members(g.Members) },
	})
	getProofsCmd = newGroupCommand(groupCommand{
		use:     "get-proofs",
		short:   "Get the proofs from a supported network (e.g. sepolia or arbitrum)",
		fields:  group.Fields{VerifiedProofs: true},
		spinner: "Fetching proofs of group %s",
		render:  func(p *ui.Printer, g *group.Group) { p.Proofs(g.VerifiedProofs) },
	})
)

func newGroupCommand(gc groupCommand) *cobra.Command {
	var network string
	cmd := &cobra.Command{
		Use:   gc.use + " [group-id]",
		Short: gc.short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			net, ok, err := a.resolveNetwork(network)
			if err != nil || !ok {
				return err
			}

			var groupID string
			if len(args) > 0 {
				groupID = args[0]
			}
			groupID, ok, err = a.resolveGroupID(ctx, net, groupID)
			if err != nil || !ok {
				return err
			}

			req := group.Request{Network: net, GroupID: groupID, Fields: gc.fields}
			spin := ui.StartSpinner(cmd.ErrOrStderr(), fmt.Sprintf(gc.spinner, groupID))
			res, err := a.lookups.Lookup(ctx, req)
			spin.Stop()
			a.record(ctx, gc.use, req, res, err)

			if err != nil {
				a.log.Debug("lookup failed", "network", net, "group", groupID, "error", err)
				a.out.Error("the group does not exist")
				return nil
			}
			a.log.Debug("lookup answered", "network", net, "group", groupID, "tier", res.Tier.String())
			gc.render(a.out, res.Group)
			return nil
		},
	}
	cmd.Flags().StringVarP(&network, "network", "n", "", "Supported Ethereum network")
	return cmd
}
