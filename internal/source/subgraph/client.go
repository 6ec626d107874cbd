// Package subgraph queries the Semaphore subgraph over GraphQL.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/devblac/semaphore-cli/internal/group"
)

// maxItems caps one page of a collection query; the subgraph rejects larger pages.
const maxItems = 1000

const groupIDsQuery = `query ($first: Int!, $after: ID!) {
  groups(first: $first, orderBy: id, orderDirection: asc, where: { id_gt: $after }) { id }
}`

const maxResponseBytes = 32 << 20

// Client resolves groups from per-network subgraph endpoints.
type Client struct {
	endpoints map[string]string
	http      *http.Client
	pageSize  int
}

// New builds a client from network name to subgraph URL. Networks with an empty URL are skipped.
func New(endpoints map[string]string, timeout time.Duration) *Client {
	eps := make(map[string]string, len(endpoints))
	for name, url := range endpoints {
		if url != "" {
			eps[name] = url
		}
	}
	return &Client{
		endpoints: eps,
		http:      &http.Client{Timeout: timeout},
		pageSize:  maxItems,
	}
}

// Group fetches one group and the requested collections.
func (c *Client) Group(ctx context.Context, network, id string, fields group.Fields) (*group.Group, error) {
	body, err := c.query(ctx, network, groupQuery(fields), map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	groups := gjson.GetBytes(body, "data.groups")
	if !groups.IsArray() {
		return nil, errors.New("malformed response: data.groups missing")
	}
	raw := groups.Array()
	if len(raw) == 0 {
		return nil, fmt.Errorf("subgraph %s: group %s: %w", network, id, group.ErrNotFound)
	}
	return decodeGroup(raw[0], fields)
}

// GroupIDs lists every group id known to the subgraph, paging by id.
func (c *Client) GroupIDs(ctx context.Context, network string) ([]string, error) {
	ids := []string{}
	after := ""
	for {
		body, err := c.query(ctx, network, groupIDsQuery, map[string]any{"first": c.pageSize, "after": after})
		if err != nil {
			return nil, err
		}
		groups := gjson.GetBytes(body, "data.groups")
		if !groups.IsArray() {
			return nil, errors.New("malformed response: data.groups missing")
		}
		page := groups.Array()
		for _, v := range page {
			ids = append(ids, v.Get("id").String())
		}
		if len(page) < c.pageSize {
			return ids, nil
		}
		next := page[len(page)-1].Get("id").String()
		if next == "" || next == after {
			return nil, errors.New("malformed response: group page did not advance")
		}
		after = next
	}
}

// Ping returns the block number the subgraph has indexed up to.
func (c *Client) Ping(ctx context.Context, network string) (uint64, error) {
	body, err := c.query(ctx, network, "{ _meta { block { number } } }", nil)
	if err != nil {
		return 0, err
	}
	n := gjson.GetBytes(body, "data._meta.block.number")
	if !n.Exists() {
		return 0, errors.New("malformed response: _meta.block.number missing")
	}
	return n.Uint(), nil
}

func (c *Client) query(ctx context.Context, network, q string, vars map[string]any) ([]byte, error) {
	url, ok := c.endpoints[network]
	if !ok {
		return nil, fmt.Errorf("no subgraph configured for network %s", network)
	}

	payload := map[string]any{"query": q}
	if len(vars) > 0 {
		payload["variables"] = vars
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query subgraph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("subgraph status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("malformed response: invalid json")
	}
	if errs := gjson.GetBytes(body, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return nil, fmt.Errorf("subgraph error: %s", errs.Array()[0].Get("message").String())
	}
	return body, nil
}

func groupQuery(fields group.Fields) string {
	var b strings.Builder
	b.WriteString("query ($id: ID!) { groups(where: { id: $id }) { id admin merkleTree { root depth zeroValue numberOfLeaves }")
	if fields.Members {
		fmt.Fprintf(&b, " members(orderBy: index, first: %d) { identityCommitment }", maxItems)
	}
	if fields.VerifiedProofs {
		fmt.Fprintf(&b, " verifiedProofs(orderBy: timestamp, first: %d) { signal merkleTreeRoot externalNullifier nullifierHash }", maxItems)
	}
	b.WriteString(" } }")
	return b.String()
}

func decodeGroup(raw gjson.Result, fields group.Fields) (*group.Group, error) {
	tree := raw.Get("merkleTree")
	if !tree.IsObject() {
		return nil, errors.New("malformed response: merkleTree missing")
	}
	for _, key := range []string{"root", "depth", "zeroValue", "numberOfLeaves"} {
		if v := tree.Get(key); !v.Exists() || v.Type == gjson.Null {
			return nil, fmt.Errorf("malformed response: merkleTree.%s missing", key)
		}
	}

	g := &group.Group{
		ID:    raw.Get("id").String(),
		Admin: raw.Get("admin").String(),
		MerkleTree: group.MerkleTree{
			Root:           tree.Get("root").String(),
			Depth:          int(tree.Get("depth").Int()),
			ZeroValue:      tree.Get("zeroValue").String(),
			NumberOfLeaves: int(tree.Get("numberOfLeaves").Int()),
		},
	}

	if fields.Members {
		g.Members = []string{}
		raw.Get("members").ForEach(func(_, m gjson.Result) bool {
			g.Members = append(g.Members, m.Get("identityCommitment").String())
			return true
		})
	}
	if fields.VerifiedProofs {
		g.VerifiedProofs = []group.VerifiedProof{}
		raw.Get("verifiedProofs").ForEach(func(_, p gjson.Result) bool {
			g.VerifiedProofs = append(g.VerifiedProofs, group.VerifiedProof{
				Signal:            p.Get("signal").String(),
				MerkleTreeRoot:    p.Get("merkleTreeRoot").String(),
				ExternalNullifier: p.Get("externalNullifier").String(),
				NullifierHash:     p.Get("nullifierHash").String(),
			})
			return true
		})
	}
	return g, nil
}
