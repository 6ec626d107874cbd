package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/devblac/semaphore-cli/internal/group"
)

// Client captures the subset of ethclient used by the source.
type Client interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Dialer opens a Client for an RPC URL.
type Dialer func(ctx context.Context, rpcURL string) (Client, error)

// Dial connects to an EVM node over ethclient.
func Dial(ctx context.Context, rpcURL string) (Client, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial evm rpc: %w", err)
	}
	return c, nil
}

// Network locates the Semaphore contract on one chain.
type Network struct {
	RPCURL     string
	Contract   common.Address
	StartBlock uint64
	// LogRange bounds the block span of one eth_getLogs call; zero queries the whole range at once.
	LogRange uint64
}

// Source reads group state directly from the Semaphore contract.
type Source struct {
	networks map[string]Network
	dial     Dialer
	abi      abi.ABI

	mu      sync.Mutex
	clients map[string]Client
}

// New builds a chain source. Clients are dialed on first use per network.
func New(networks map[string]Network, dial Dialer) (*Source, error) {
	a, err := SemaphoreABI()
	if err != nil {
		return nil, err
	}
	if dial == nil {
		dial = Dial
	}
	nets := make(map[string]Network, len(networks))
	for name, n := range networks {
		if n.RPCURL != "" {
			nets[name] = n
		}
	}
	return &Source{
		networks: nets,
		dial:     dial,
		abi:      a,
		clients:  map[string]Client{},
	}, nil
}

func (s *Source) client(ctx context.Context, network string) (Client, Network, error) {
	n, ok := s.networks[network]
	if !ok {
		return nil, Network{}, fmt.Errorf("no rpc configured for network %s", network)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[network]; ok {
		return c, n, nil
	}
	c, err := s.dial(ctx, n.RPCURL)
	if err != nil {
		return nil, Network{}, err
	}
	s.clients[network] = c
	return c, n, nil
}

// Group returns the base record: merkle tree parameters and current root and size.
func (s *Source) Group(ctx context.Context, network, id string) (*group.Group, error) {
	gid, err := parseGroupID(id)
	if err != nil {
		return nil, err
	}
	c, n, err := s.client(ctx, network)
	if err != nil {
		return nil, err
	}

	created, err := s.created(ctx, c, n, gid)
	if err != nil {
		return nil, err
	}

	root, err := s.callUint(ctx, c, n, methodMerkleTreeRoot, gid)
	if err != nil {
		return nil, err
	}
	leaves, err := s.callUint(ctx, c, n, methodNumberOfLeaves, gid)
	if err != nil {
		return nil, err
	}

	depth, _ := created["merkleTreeDepth"].(*big.Int)
	zero, _ := created["zeroValue"].(*big.Int)
	if depth == nil || zero == nil {
		return nil, errors.New("GroupCreated log missing merkleTreeDepth or zeroValue")
	}

	return &group.Group{
		ID: gid.String(),
		MerkleTree: group.MerkleTree{
			Root:           root.String(),
			Depth:          int(depth.Int64()),
			ZeroValue:      zero.String(),
			NumberOfLeaves: int(leaves.Int64()),
		},
	}, nil
}

// GroupAdmin returns the admin set by the most recent GroupAdminUpdated event.
func (s *Source) GroupAdmin(ctx context.Context, network, id string) (string, error) {
	gid, err := parseGroupID(id)
	if err != nil {
		return "", err
	}
	c, n, err := s.client(ctx, network)
	if err != nil {
		return "", err
	}
	events, err := s.events(ctx, c, n, eventGroupAdminUpdated, gid)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", fmt.Errorf("%s log for group %s: %w", eventGroupAdminUpdated, id, group.ErrNotFound)
	}
	admin, ok := events[len(events)-1].args["newAdmin"].(common.Address)
	if !ok {
		return "", fmt.Errorf("%s log missing newAdmin", eventGroupAdminUpdated)
	}
	return admin.Hex(), nil
}

// GroupVerifiedProofs returns proofs in chain order.
func (s *Source) GroupVerifiedProofs(ctx context.Context, network, id string) ([]group.VerifiedProof, error) {
	gid, err := parseGroupID(id)
	if err != nil {
		return nil, err
	}
	c, n, err := s.client(ctx, network)
	if err != nil {
		return nil, err
	}
	events, err := s.events(ctx, c, n, eventProofVerified, gid)
	if err != nil {
		return nil, err
	}
	proofs := make([]group.VerifiedProof, 0, len(events))
	for _, ev := range events {
		proofs = append(proofs, group.VerifiedProof{
			Signal:            bigString(ev.args["signal"]),
			MerkleTreeRoot:    bigString(ev.args["merkleTreeRoot"]),
			ExternalNullifier: bigString(ev.args["externalNullifier"]),
			NullifierHash:     bigString(ev.args["nullifierHash"]),
		})
	}
	return proofs, nil
}

// GroupIDs lists every group created on the contract.
func (s *Source) GroupIDs(ctx context.Context, network string) ([]string, error) {
	c, n, err := s.client(ctx, network)
	if err != nil {
		return nil, err
	}
	events, err := s.events(ctx, c, n, eventGroupCreated, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, bigString(ev.args["groupId"]))
	}
	return ids, nil
}

// Ping returns the latest block number of the network's RPC.
func (s *Source) Ping(ctx context.Context, network string) (uint64, error) {
	c, _, err := s.client(ctx, network)
	if err != nil {
		return 0, err
	}
	h, err := c.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("latest header: %w", err)
	}
	return h.Number.Uint64(), nil
}

func (s *Source) created(ctx context.Context, c Client, n Network, gid *big.Int) (map[string]any, error) {
	events, err := s.events(ctx, c, n, eventGroupCreated, gid)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%s log for group %s: %w", eventGroupCreated, gid, group.ErrNotFound)
	}
	return events[0].args, nil
}

func (s *Source) callUint(ctx context.Context, c Client, n Network, method string, gid *big.Int) (*big.Int, error) {
	data, err := s.abi.Pack(method, gid)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := n.Contract
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	vals, err := s.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("unpack %s: expected 1 value, got %d", method, len(vals))
	}
	v, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type %T", method, vals[0])
	}
	return v, nil
}

// parseGroupID accepts a decimal uint256; anything else cannot name an on-chain group.
func parseGroupID(id string) (*big.Int, error) {
	gid, ok := new(big.Int).SetString(id, 10)
	if !ok || gid.Sign() < 0 || gid.BitLen() > 256 {
		return nil, fmt.Errorf("group id %q is not a uint256: %w", id, group.ErrNotFound)
	}
	return gid, nil
}

func bigString(v any) string {
	if b, ok := v.(*big.Int); ok && b != nil {
		return b.String()
	}
	return ""
}
