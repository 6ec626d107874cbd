package group

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// IndexedSource answers from a pre-indexed dataset (the subgraph).
type IndexedSource interface {
	Group(ctx context.Context, network, id string, fields Fields) (*Group, error)
	GroupIDs(ctx context.Context, network string) ([]string, error)
}

// ChainSource answers from contract state, one call per field.
type ChainSource interface {
	Group(ctx context.Context, network, id string) (*Group, error)
	GroupAdmin(ctx context.Context, network, id string) (string, error)
	GroupMembers(ctx context.Context, network, id string) ([]string, error)
	GroupVerifiedProofs(ctx context.Context, network, id string) ([]VerifiedProof, error)
	GroupIDs(ctx context.Context, network string) ([]string, error)
}

// Observer is notified once per finished tier attempt.
type Observer func(network string, a Attempt)

// Service resolves groups from an indexed source with a chain fallback.
type Service struct {
	indexed  IndexedSource
	chain    ChainSource
	networks []string
	log      *slog.Logger
	observe  Observer
}

type Option func(*Service)

// WithNetworks restricts lookups to the given allow-list.
func WithNetworks(names []string) Option {
	return func(s *Service) { s.networks = slices.Clone(names) }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithObserver(fn Observer) Option {
	return func(s *Service) { s.observe = fn }
}

// NewService builds a lookup service. Either source may be nil, in which case its tier is skipped.
func NewService(indexed IndexedSource, chain ChainSource, opts ...Option) *Service {
	s := &Service{
		indexed: indexed,
		chain:   chain,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckNetwork rejects networks outside the allow-list.
func (s *Service) CheckNetwork(network string) error {
	if len(s.networks) == 0 || slices.Contains(s.networks, network) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedNetwork, network)
}

// Lookup returns the group from the first tier that yields a complete record.
// Tier 2 runs only after tier 1 has failed; its calls are sequential and all-or-nothing.
func (s *Service) Lookup(ctx context.Context, req Request) (*Result, error) {
	if err := s.CheckNetwork(req.Network); err != nil {
		return nil, err
	}

	attempts := make([]Attempt, 0, 2)

	if s.indexed != nil {
		g, err := s.indexed.Group(ctx, req.Network, req.GroupID, req.Fields)
		if err == nil {
			err = checkRecord(g, req.Fields)
		}
		a := s.record(req.Network, TierIndexed, err)
		attempts = append(attempts, a)
		if err == nil {
			return &Result{Group: g, Tier: TierIndexed, Attempts: attempts}, nil
		}
		s.log.Debug("indexed lookup failed", "network", req.Network, "group", req.GroupID, "outcome", a.Outcome.String(), "error", err)
	}

	if s.chain != nil {
		g, err := s.fromChain(ctx, req)
		if err == nil {
			err = checkRecord(g, req.Fields)
		}
		a := s.record(req.Network, TierChain, err)
		attempts = append(attempts, a)
		if err == nil {
			return &Result{Group: g, Tier: TierChain, Attempts: attempts}, nil
		}
		s.log.Debug("chain lookup failed", "network", req.Network, "group", req.GroupID, "outcome", a.Outcome.String(), "error", err)
	}

	return nil, &LookupError{Network: req.Network, GroupID: req.GroupID, Attempts: attempts}
}

func (s *Service) fromChain(ctx context.Context, req Request) (*Group, error) {
	g, err := s.chain.Group(ctx, req.Network, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("group: %w", ErrNotFound)
	}
	if req.Fields.Admin {
		admin, err := s.chain.GroupAdmin(ctx, req.Network, req.GroupID)
		if err != nil {
			return nil, fmt.Errorf("admin: %w", err)
		}
		g.Admin = admin
	}
	if req.Fields.Members {
		members, err := s.chain.GroupMembers(ctx, req.Network, req.GroupID)
		if err != nil {
			return nil, fmt.Errorf("members: %w", err)
		}
		g.Members = nonNil(members)
	}
	if req.Fields.VerifiedProofs {
		proofs, err := s.chain.GroupVerifiedProofs(ctx, req.Network, req.GroupID)
		if err != nil {
			return nil, fmt.Errorf("verified proofs: %w", err)
		}
		g.VerifiedProofs = nonNil(proofs)
	}
	return g, nil
}

// GroupIDs lists group identifiers with the same two-tier fallback.
func (s *Service) GroupIDs(ctx context.Context, network string) ([]string, error) {
	if err := s.CheckNetwork(network); err != nil {
		return nil, err
	}

	attempts := make([]Attempt, 0, 2)

	if s.indexed != nil {
		ids, err := s.indexed.GroupIDs(ctx, network)
		a := s.record(network, TierIndexed, err)
		attempts = append(attempts, a)
		if err == nil {
			return nonNil(ids), nil
		}
		s.log.Debug("indexed group list failed", "network", network, "error", err)
	}

	if s.chain != nil {
		ids, err := s.chain.GroupIDs(ctx, network)
		a := s.record(network, TierChain, err)
		attempts = append(attempts, a)
		if err == nil {
			return nonNil(ids), nil
		}
		s.log.Debug("chain group list failed", "network", network, "error", err)
	}

	return nil, &LookupError{Network: network, Attempts: attempts}
}

func (s *Service) record(network string, tier Tier, err error) Attempt {
	a := Attempt{Tier: tier, Outcome: OutcomeFound}
	if err != nil {
		a.Outcome = classify(err)
		a.Err = err
	}
	if s.observe != nil {
		s.observe(network, a)
	}
	return a
}

// checkRecord rejects records that cannot be shown as-is.
func checkRecord(g *Group, fields Fields) error {
	if g == nil {
		return fmt.Errorf("empty record: %w", ErrUnavailable)
	}
	if fields.Members {
		if g.Members == nil {
			return fmt.Errorf("members missing from record: %w", ErrUnavailable)
		}
		if g.MerkleTree.NumberOfLeaves != len(g.Members) {
			return fmt.Errorf("merkle tree has %d leaves but %d members: %w", g.MerkleTree.NumberOfLeaves, len(g.Members), ErrUnavailable)
		}
	}
	if fields.VerifiedProofs && g.VerifiedProofs == nil {
		return fmt.Errorf("verified proofs missing from record: %w", ErrUnavailable)
	}
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
