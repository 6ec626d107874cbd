package evm

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type decodedEvent struct {
	block uint64
	index uint
	args  map[string]any
}

// before orders events by chain position.
func (e decodedEvent) before(o decodedEvent) bool {
	if e.block != o.block {
		return e.block < o.block
	}
	return e.index < o.index
}

// events fetches and decodes logs of one event, optionally filtered by group id.
func (s *Source) events(ctx context.Context, c Client, n Network, name string, gid *big.Int) ([]decodedEvent, error) {
	ev, ok := s.abi.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %s not in abi", name)
	}

	topics := [][]common.Hash{{ev.ID}}
	if gid != nil {
		topics = append(topics, []common.Hash{common.BigToHash(gid)})
	}

	logs, err := s.filter(ctx, c, n, topics)
	if err != nil {
		return nil, fmt.Errorf("filter %s logs: %w", name, err)
	}

	out := make([]decodedEvent, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		args, err := decodeLog(ev, lg)
		if err != nil {
			return nil, err
		}
		out = append(out, decodedEvent{block: lg.BlockNumber, index: lg.Index, args: args})
	}
	return out, nil
}

// filter runs eth_getLogs from the network's start block to the head, in LogRange chunks when set.
func (s *Source) filter(ctx context.Context, c Client, n Network, topics [][]common.Hash) ([]types.Log, error) {
	q := ethereum.FilterQuery{
		Addresses: []common.Address{n.Contract},
		Topics:    topics,
		FromBlock: new(big.Int).SetUint64(n.StartBlock),
	}
	if n.LogRange == 0 {
		return c.FilterLogs(ctx, q)
	}

	head, err := c.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}
	latest := head.Number.Uint64()

	var logs []types.Log
	for start := n.StartBlock; start <= latest; start += n.LogRange {
		end := start + n.LogRange - 1
		if end > latest {
			end = latest
		}
		q.FromBlock = new(big.Int).SetUint64(start)
		q.ToBlock = new(big.Int).SetUint64(end)
		chunk, err := c.FilterLogs(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("blocks %d-%d: %w", start, end, err)
		}
		logs = append(logs, chunk...)
	}
	return logs, nil
}
