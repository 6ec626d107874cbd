package main

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/devblac/semaphore-cli/internal/config"
	"github.com/devblac/semaphore-cli/internal/group"
	"github.com/devblac/semaphore-cli/internal/logging"
	"github.com/devblac/semaphore-cli/internal/metrics"
	"github.com/devblac/semaphore-cli/internal/prompt"
	"github.com/devblac/semaphore-cli/internal/scaffold"
	"github.com/devblac/semaphore-cli/internal/storage"
	"github.com/devblac/semaphore-cli/internal/ui"
)

// fakes

type fakeIndexed struct {
	groups map[string]*group.Group
	ids    []string
	err    error
	calls  int
}

func (f *fakeIndexed) Group(_ context.Context, _, id string, _ group.Fields) (*group.Group, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.groups[id]
	if !ok {
		return nil, group.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeIndexed) GroupIDs(context.Context, string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

type fakeChain struct {
	groups map[string]*group.Group
	err    error
	calls  int
}

func (f *fakeChain) lookup(id string) (*group.Group, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.groups[id]
	if !ok {
		return nil, group.ErrNotFound
	}
	return g, nil
}

func (f *fakeChain) Group(_ context.Context, _, id string) (*group.Group, error) {
	g, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return &group.Group{ID: g.ID, MerkleTree: g.MerkleTree}, nil
}

func (f *fakeChain) GroupAdmin(_ context.Context, _, id string) (string, error) {
	g, err := f.lookup(id)
	if err != nil {
		return "", err
	}
	return g.Admin, nil
}

func (f *fakeChain) GroupMembers(_ context.Context, _, id string) ([]string, error) {
	g, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return g.Members, nil
}

func (f *fakeChain) GroupVerifiedProofs(_ context.Context, _, id string) ([]group.VerifiedProof, error) {
	g, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return g.VerifiedProofs, nil
}

func (f *fakeChain) GroupIDs(context.Context, string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, 0, len(f.groups))
	for id := range f.groups {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakePrompt struct {
	input     string
	selection map[string]string
	err       error
	asked     []string
	options   [][]string
}

func (p *fakePrompt) Input(question, placeholder string, _ func(string) error) (string, error) {
	p.asked = append(p.asked, question)
	if p.err != nil {
		return "", p.err
	}
	return p.input, nil
}

func (p *fakePrompt) Select(question string, options []string) (string, error) {
	p.asked = append(p.asked, question)
	p.options = append(p.options, options)
	if p.err != nil {
		return "", p.err
	}
	if v, ok := p.selection[question]; ok {
		return v, nil
	}
	return options[0], nil
}

type fakePinger struct {
	block uint64
	err   error
}

func (p fakePinger) Ping(context.Context, string) (uint64, error) { return p.block, p.err }

type fakeFetcher struct {
	latest  string
	files   map[string]string
	err     error
	version []string
}

func (f *fakeFetcher) Resolve(_ context.Context, pkg, version string) (*scaffold.Manifest, error) {
	f.version = append(f.version, pkg+"@"+version)
	if f.err != nil {
		return nil, f.err
	}
	v := version
	if v == "" || v == "latest" {
		v = f.latest
	}
	return &scaffold.Manifest{Name: pkg, Version: v, Tarball: "memory"}, nil
}

func (f *fakeFetcher) Open(context.Context, *scaffold.Manifest) (io.ReadCloser, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for name, body := range f.files {
		_ = tw.WriteHeader(&tar.Header{Name: "package/" + name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg})
		_, _ = tw.Write([]byte(body))
	}
	_ = tw.Close()
	_ = zw.Close()
	return io.NopCloser(&buf), nil
}

// harness

type harness struct {
	indexed *fakeIndexed
	chain   *fakeChain
	prompt  *fakePrompt
	fetcher *fakeFetcher
	subPing fakePinger
	rpcPing fakePinger
	// historyPath opens a fresh store per command; each command closes its own.
	historyPath string
	metrics     *metrics.Metrics
}

var group42 = &group.Group{
	ID:    "42",
	Admin: "0x7a0b8c",
	MerkleTree: group.MerkleTree{
		Root: "1234", Depth: 20, ZeroValue: "0", NumberOfLeaves: 2,
	},
	Members:        []string{"111", "222"},
	VerifiedProofs: []group.VerifiedProof{{Signal: "s", MerkleTreeRoot: "1234", ExternalNullifier: "e", NullifierHash: "n"}},
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		indexed: &fakeIndexed{groups: map[string]*group.Group{"42": group42}, ids: []string{"42"}},
		chain:   &fakeChain{groups: map[string]*group.Group{"42": group42}},
		prompt:  &fakePrompt{},
		fetcher: &fakeFetcher{latest: "3.15.0", files: map[string]string{
			"package.json": `{"name":"tpl","scripts":{"compile":"x","test":"y"}}`,
			"README.md":    "# template",
		}},
		subPing: fakePinger{block: 100},
		rpcPing: fakePinger{block: 120},
		metrics: metrics.New(),
	}

	prev := newApp
	newApp = func(cmd *cobra.Command) (*app, error) {
		var history *storage.Store
		if h.historyPath != "" {
			s, err := storage.Open(h.historyPath)
			if err != nil {
				return nil, err
			}
			history = s
		}
		a := &app{
			cfg:          config.Default(),
			log:          logging.NewWriter(io.Discard, "debug"),
			out:          ui.NewPrinter(cmd.OutOrStdout(), true),
			timeout:      time.Second,
			subgraphPing: h.subPing,
			rpcPing:      h.rpcPing,
			fetcher:      h.fetcher,
			prompt:       h.prompt,
			metrics:      h.metrics,
			history:      history,
		}
		a.wire(h.indexed, h.chain)
		return a, nil
	}
	t.Cleanup(func() { newApp = prev })
	return h
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// tests

func TestUnsupportedNetworkRejectedBeforeLookup(t *testing.T) {
	h := newHarness(t)
	for _, c := range []string{"get-group", "get-members", "get-proofs"} {
		out, err := run(t, c, "42", "-n", "unsupported-chain")
		require.NoError(t, err)
		require.Equal(t, "\n ✖ error: the network 'unsupported-chain' is not supported\n\n", out)
	}
	out, err := run(t, "get-groups", "-n", "unsupported-chain")
	require.NoError(t, err)
	require.Contains(t, out, "is not supported")

	require.Zero(t, h.indexed.calls)
	require.Zero(t, h.chain.calls)
}

func TestGetGroupFromIndexedTier(t *testing.T) {
	h := newHarness(t)
	out, err := run(t, "get-group", "42", "-n", "sepolia")
	require.NoError(t, err)
	require.Contains(t, out, " Id: 42\n Admin: 0x7a0b8c\n Merkle tree:\n   Root: 1234\n")
	require.Zero(t, h.chain.calls)
}

func TestGetMembersFallsBackToChain(t *testing.T) {
	h := newHarness(t)
	h.indexed.err = errors.New("subgraph status 503")

	out, err := run(t, "get-members", "42", "-n", "sepolia")
	require.NoError(t, err)
	require.Equal(t, "\nMembers: \n   0. 111\n   1. 222\n\n", out)
	require.NotZero(t, h.chain.calls)
}

func TestGroupDoesNotExist(t *testing.T) {
	h := newHarness(t)
	h.chain.err = errors.New("dial evm rpc: connection refused")

	out, err := run(t, "get-proofs", "7", "-n", "sepolia")
	require.NoError(t, err)
	require.Equal(t, "\n ✖ error: the group does not exist\n\n", out)
}

func TestEmptyCollections(t *testing.T) {
	h := newHarness(t)
	h.indexed.groups["5"] = &group.Group{ID: "5", Members: []string{}, VerifiedProofs: []group.VerifiedProof{}}

	out, err := run(t, "get-members", "5", "-n", "goerli")
	require.NoError(t, err)
	require.Equal(t, "\n ℹ info: there are no members in this group\n\n", out)

	out, err = run(t, "get-proofs", "5", "-n", "goerli")
	require.NoError(t, err)
	require.Equal(t, "\n ℹ info: there are no proofs in this group\n\n", out)
}

func TestGetGroups(t *testing.T) {
	h := newHarness(t)
	h.indexed.ids = []string{"1", "42"}

	out, err := run(t, "get-groups", "-n", "mumbai")
	require.NoError(t, err)
	require.Equal(t, "\n - 1\n - 42\n\n", out)

	h.indexed.ids = []string{}
	out, err = run(t, "get-groups", "-n", "mumbai")
	require.NoError(t, err)
	require.Equal(t, "\n ℹ info: there are no groups in this network\n\n", out)

	h.indexed.err = errors.New("down")
	h.chain.err = errors.New("down")
	out, err = run(t, "get-groups", "-n", "mumbai")
	require.NoError(t, err)
	require.Equal(t, "\n ✖ error: unsupported network\n\n", out)
}

func TestPromptsForNetworkAndGroup(t *testing.T) {
	h := newHarness(t)
	h.prompt.selection = map[string]string{"Select one of the supported networks:": "arbitrum"}

	out, err := run(t, "get-group")
	require.NoError(t, err)
	require.Contains(t, out, "Id: 42")
	require.Equal(t, []string{
		"Select one of the supported networks:",
		"Select one of the following existing group ids:",
	}, h.prompt.asked)
	require.Equal(t, config.SupportedNetworks, h.prompt.options[0])
	require.Equal(t, []string{"42"}, h.prompt.options[1])
}

func TestNonInteractiveNamesFlag(t *testing.T) {
	h := newHarness(t)
	h.prompt.err = prompt.ErrNotInteractive

	_, err := run(t, "get-members", "42")
	require.ErrorIs(t, err, prompt.ErrNotInteractive)
	require.Contains(t, err.Error(), "--network")

	_, err = run(t, "create")
	require.ErrorIs(t, err, prompt.ErrNotInteractive)
	require.Contains(t, err.Error(), "project-directory")
}

func TestCreateProject(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(t.TempDir(), "my-app")

	out, err := run(t, "create", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Your project is ready!")
	require.Contains(t, out, "cd "+dir)
	require.Contains(t, out, "npm run compile\n   npm run test")
	require.FileExists(t, filepath.Join(dir, "README.md"))
	require.Contains(t, h.fetcher.version, config.DefaultTemplate+"@")

	out, err = run(t, "create", dir)
	require.NoError(t, err)
	require.Equal(t, "\n ✖ error: the '"+dir+"' folder already exists\n\n", out)
}

func TestCreateWarnsWhenOutdated(t *testing.T) {
	newHarness(t)
	prev := version
	version = "3.0.0"
	t.Cleanup(func() { version = prev })

	out, err := run(t, "create", filepath.Join(t.TempDir(), "app"))
	require.NoError(t, err)
	require.Contains(t, out, "warning: you are using an outdated version (3.0.0)")
	require.Contains(t, out, "(3.15.0)")
}

func TestCreateRegistryFailure(t *testing.T) {
	h := newHarness(t)
	h.fetcher.err = errors.New("registry status 500")

	_, err := run(t, "create", filepath.Join(t.TempDir(), "app"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "create project")
}

func TestDoctor(t *testing.T) {
	h := newHarness(t)
	out, err := run(t, "doctor", "-n", "sepolia")
	require.NoError(t, err)
	require.Contains(t, out, "- sepolia subgraph: block 100 OK")
	require.Contains(t, out, "- sepolia rpc: block 120 OK")
	require.Contains(t, out, "doctor: success")

	h.rpcPing = fakePinger{err: errors.New("connection refused")}
	out, err = run(t, "doctor", "-n", "sepolia")
	require.Error(t, err)
	require.Contains(t, out, "- sepolia rpc: ERROR")

	_, err = run(t, "doctor", "-n", "unsupported-chain")
	require.Error(t, err)
}

func TestHistoryRecordsLookups(t *testing.T) {
	h := newHarness(t)
	h.historyPath = filepath.Join(t.TempDir(), "history.db")

	_, err := run(t, "get-group", "42", "-n", "sepolia")
	require.NoError(t, err)
	_, err = run(t, "get-members", "9", "-n", "sepolia")
	require.NoError(t, err)

	out, err := run(t, "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "get-members")
	require.Contains(t, lines[1], "not_found")
	require.Contains(t, lines[2], "get-group")
	require.Contains(t, lines[2], "indexed")
}

func TestHistoryDisabled(t *testing.T) {
	newHarness(t)
	out, err := run(t, "history")
	require.NoError(t, err)
	require.Contains(t, out, "lookup history is disabled")
}

func TestNetworksAndVersion(t *testing.T) {
	newHarness(t)
	out, err := run(t, "networks")
	require.NoError(t, err)
	require.Contains(t, out, "NETWORK")
	require.Contains(t, out, "optimism-goerli")

	out, err = run(t, "version")
	require.NoError(t, err)
	require.Equal(t, "semaphore "+version+"\n", out)

	out, err = run(t, "-v")
	require.NoError(t, err)
	require.Equal(t, version+"\n", out)
}
