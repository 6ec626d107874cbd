package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/devblac/semaphore-cli/internal/config"
	"github.com/devblac/semaphore-cli/internal/prompt"
)

// resolveNetwork prompts for a missing network and rejects unsupported ones.
// ok is false when a status line was printed and the command should stop.
func (a *app) resolveNetwork(network string) (resolved string, ok bool, err error) {
	if network == "" {
		network, err = a.prompt.Select("Select one of the supported networks:", config.SupportedNetworks)
		if err != nil {
			return "", false, promptErr(err, "--network")
		}
	}
	if !config.IsSupported(network) {
		a.out.Error("the network '%s' is not supported", network)
		return "", false, nil
	}
	return network, true, nil
}

// resolveGroupID prompts for a group id chosen from the groups of network.
func (a *app) resolveGroupID(ctx context.Context, network, groupID string) (string, bool, error) {
	if groupID != "" {
		return groupID, true, nil
	}
	ids, ok := a.groupIDs(ctx, network)
	if !ok {
		return "", false, nil
	}
	id, err := a.prompt.Select("Select one of the following existing group ids:", ids)
	if err != nil {
		return "", false, promptErr(err, "the [group-id] argument")
	}
	return id, true, nil
}

// groupIDs lists the groups of network, printing a status line when there are none.
func (a *app) groupIDs(ctx context.Context, network string) ([]string, bool) {
	ids, err := a.lookups.GroupIDs(ctx, network)
	if err != nil {
		a.log.Debug("group ids unavailable", "network", network, "error", err)
		a.out.Error("unsupported network")
		return nil, false
	}
	if len(ids) == 0 {
		a.out.Info("there are no groups in this network")
		return nil, false
	}
	return ids, true
}

func promptErr(err error, hint string) error {
	switch {
	case errors.Is(err, prompt.ErrNotInteractive):
		return fmt.Errorf("%w: pass %s", err, hint)
	case errors.Is(err, prompt.ErrCancelled):
		return err
	default:
		return fmt.Errorf("prompt: %w", err)
	}
}
