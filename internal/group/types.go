package group

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a confirmed absence, or the collapsed outcome of a failed lookup.
	ErrNotFound = errors.New("group not found")
	// ErrUnavailable marks a source that could not answer.
	ErrUnavailable = errors.New("source unavailable")
	// ErrUnsupportedNetwork is returned before any source is queried.
	ErrUnsupportedNetwork = errors.New("unsupported network")
)

// Group is the normalized record rendered by the CLI.
type Group struct {
	ID             string
	Admin          string
	MerkleTree     MerkleTree
	Members        []string
	VerifiedProofs []VerifiedProof
}

type MerkleTree struct {
	Root           string
	Depth          int
	ZeroValue      string
	NumberOfLeaves int
}

type VerifiedProof struct {
	Signal            string
	MerkleTreeRoot    string
	ExternalNullifier string
	NullifierHash     string
}

// Fields selects the auxiliary fields a lookup must include.
type Fields struct {
	Admin          bool
	Members        bool
	VerifiedProofs bool
}

// Request is a fully resolved lookup.
type Request struct {
	Network string
	GroupID string
	Fields  Fields
}

type Tier int

const (
	TierIndexed Tier = iota + 1
	TierChain
)

func (t Tier) String() string {
	switch t {
	case TierIndexed:
		return "indexed"
	case TierChain:
		return "chain"
	default:
		return "none"
	}
}

type Outcome int

const (
	OutcomeFound Outcome = iota + 1
	OutcomeNotFound
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Attempt records what one tier answered.
type Attempt struct {
	Tier    Tier
	Outcome Outcome
	Err     error
}

// Result is a successful lookup.
type Result struct {
	Group    *Group
	Tier     Tier
	Attempts []Attempt
}

// LookupError is returned when no tier produced a usable record.
type LookupError struct {
	Network  string
	GroupID  string
	Attempts []Attempt
}

func (e *LookupError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Tier, a.Outcome))
	}
	subject := "groups"
	if e.GroupID != "" {
		subject = fmt.Sprintf("group %s", e.GroupID)
	}
	return fmt.Sprintf("%s on %s: %v (%s)", subject, e.Network, ErrNotFound, strings.Join(parts, ", "))
}

// Is makes every LookupError match ErrNotFound.
func (e *LookupError) Is(target error) bool {
	return target == ErrNotFound
}

// Confirmed reports whether every tier positively confirmed absence.
func (e *LookupError) Confirmed() bool {
	if len(e.Attempts) == 0 {
		return false
	}
	for _, a := range e.Attempts {
		if a.Outcome != OutcomeNotFound {
			return false
		}
	}
	return true
}

func classify(err error) Outcome {
	if errors.Is(err, ErrNotFound) {
		return OutcomeNotFound
	}
	return OutcomeUnavailable
}
