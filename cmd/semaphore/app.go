package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/devblac/semaphore-cli/internal/config"
	"github.com/devblac/semaphore-cli/internal/group"
	"github.com/devblac/semaphore-cli/internal/health"
	"github.com/devblac/semaphore-cli/internal/logging"
	"github.com/devblac/semaphore-cli/internal/metrics"
	"github.com/devblac/semaphore-cli/internal/prompt"
	"github.com/devblac/semaphore-cli/internal/scaffold"
	"github.com/devblac/semaphore-cli/internal/source/evm"
	"github.com/devblac/semaphore-cli/internal/source/subgraph"
	"github.com/devblac/semaphore-cli/internal/storage"
	"github.com/devblac/semaphore-cli/internal/ui"
)

// app carries the dependencies shared by every command.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	out     *ui.Printer
	timeout time.Duration

	lookups      *group.Service
	subgraphPing health.Pinger
	rpcPing      health.Pinger
	fetcher      scaffold.Fetcher
	prompt       prompt.Prompter
	metrics      *metrics.Metrics
	history      *storage.Store
}

// newApp is swapped in tests.
var newApp = buildApp

func buildApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgPath, !cmd.Flags().Changed("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}

	sg := subgraph.New(subgraphEndpoints(cfg), timeout)
	chain, err := evm.New(chainNetworks(cfg), nil)
	if err != nil {
		return nil, fmt.Errorf("init chain source: %w", err)
	}

	a := &app{
		cfg:          cfg,
		log:          logging.NewWithLevel(resolveLogLevel()),
		out:          ui.NewPrinter(cmd.OutOrStdout(), noColor),
		timeout:      timeout,
		subgraphPing: sg,
		rpcPing:      chain,
		fetcher:      scaffold.NewRegistry(cfg.Global.RegistryURL, timeout),
		prompt:       prompt.NewTerminal(),
		metrics:      metrics.New(),
	}

	if cfg.Global.HistoryDB != "" {
		store, err := storage.Open(cfg.Global.HistoryDB)
		if err != nil {
			a.log.Warn("history disabled", "path", cfg.Global.HistoryDB, "error", err)
		} else {
			a.history = store
		}
	}

	a.wire(sg, chain)
	return a, nil
}

// wire builds the lookup service over the given tiers.
func (a *app) wire(indexed group.IndexedSource, chain group.ChainSource) {
	a.lookups = group.NewService(indexed, chain,
		group.WithNetworks(config.SupportedNetworks),
		group.WithLogger(a.log),
		group.WithObserver(a.observe),
	)
}

func (a *app) observe(network string, at group.Attempt) {
	a.metrics.Observe(network, at)
	a.log.Debug("source attempt", "network", network, "tier", at.Tier.String(), "outcome", at.Outcome.String(), "error", at.Err)
}

// record counts a finished lookup and appends it to the history when enabled.
func (a *app) record(ctx context.Context, command string, req group.Request, res *group.Result, err error) {
	tier := group.Tier(0)
	outcome := group.OutcomeFound
	switch {
	case res != nil:
		tier = res.Tier
	case isConfirmedAbsent(err):
		outcome = group.OutcomeNotFound
	default:
		outcome = group.OutcomeUnavailable
	}
	a.metrics.Lookup(command, tier, outcome)

	if a.history == nil {
		return
	}
	l := storage.Lookup{
		Network: req.Network,
		GroupID: req.GroupID,
		Command: command,
		Outcome: outcome.String(),
	}
	if tier != 0 {
		l.Tier = tier.String()
	}
	if err := a.history.InsertLookup(ctx, l); err != nil {
		a.log.Warn("record lookup", "error", err)
	}
}

func (a *app) close() {
	if err := a.metrics.WriteTextfile(metricsPath); err != nil {
		a.log.Warn("metrics not written", "path", metricsPath, "error", err)
	}
	if err := a.history.Close(); err != nil {
		a.log.Warn("close history", "error", err)
	}
}

func isConfirmedAbsent(err error) bool {
	var le *group.LookupError
	return errors.As(err, &le) && le.Confirmed()
}

func resolveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		return env
	}
	return "warn"
}

func subgraphEndpoints(cfg *config.Config) map[string]string {
	out := make(map[string]string, len(cfg.Networks))
	for name, n := range cfg.Networks {
		out[name] = n.SubgraphURL
	}
	return out
}

func chainNetworks(cfg *config.Config) map[string]evm.Network {
	out := make(map[string]evm.Network, len(cfg.Networks))
	for name, n := range cfg.Networks {
		out[name] = evm.Network{
			RPCURL:     n.RPCURL,
			Contract:   common.HexToAddress(n.Contract),
			StartBlock: n.StartBlock,
			LogRange:   n.LogRange,
		}
	}
	return out
}
