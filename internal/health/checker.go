// Package health runs the connectivity checks behind the doctor command.
package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger reports the latest block a backend has seen for a network.
type Pinger interface {
	Ping(ctx context.Context, network string) (uint64, error)
}

// Target names a network and the backends configured for it.
type Target struct {
	Network  string
	Subgraph bool
	RPC      bool
}

// Checker pings each configured backend. Nil pingers are skipped.
type Checker struct {
	Subgraph Pinger
	RPC      Pinger
	DBPing   func(ctx context.Context) error
	Timeout  time.Duration
}

type Status int

const (
	StatusOK Status = iota
	StatusFail
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFail:
		return "fail"
	default:
		return "skipped"
	}
}

// Result is the outcome of one backend check.
type Result struct {
	Network   string
	Component string
	Status    Status
	Block     uint64
	Latency   time.Duration
	Err       error
}

// Report collects every result of a run.
type Report struct {
	Results []Result
}

// OK is false when any check failed.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return false
		}
	}
	return true
}

// Failed counts failing checks.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusFail {
			n++
		}
	}
	return n
}

// Run checks the targets in order; subgraph before rpc for each network.
func (c Checker) Run(ctx context.Context, targets []Target) Report {
	var rep Report
	for _, t := range targets {
		rep.Results = append(rep.Results,
			c.ping(ctx, t.Network, "subgraph", t.Subgraph, c.Subgraph),
			c.ping(ctx, t.Network, "rpc", t.RPC, c.RPC),
		)
	}
	if c.DBPing != nil {
		res := Result{Component: "history"}
		pctx, cancel := c.context(ctx)
		start := time.Now()
		if err := c.DBPing(pctx); err != nil {
			res.Status, res.Err = StatusFail, err
		}
		res.Latency = time.Since(start)
		cancel()
		rep.Results = append(rep.Results, res)
	}
	return rep
}

func (c Checker) ping(ctx context.Context, network, component string, configured bool, p Pinger) Result {
	res := Result{Network: network, Component: component}
	if !configured || p == nil {
		res.Status = StatusSkipped
		return res
	}

	pctx, cancel := c.context(ctx)
	defer cancel()

	start := time.Now()
	block, err := p.Ping(pctx, network)
	res.Latency = time.Since(start)
	if err != nil {
		res.Status = StatusFail
		res.Err = fmt.Errorf("%s %s: %w", component, network, err)
		return res
	}
	res.Block = block
	return res
}

func (c Checker) context(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
