package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devblac/semaphore-cli/internal/group"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newServer(t *testing.T, handler func(req gqlRequest) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		code, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const groupResponse = `{"data":{"groups":[{
	"id":"42",
	"admin":"0xd770134156f9aB742fDB4561A684187f733A9586",
	"merkleTree":{"root":"1234","depth":20,"zeroValue":"0","numberOfLeaves":"2"},
	"members":[{"identityCommitment":"111"},{"identityCommitment":"222"}],
	"verifiedProofs":[{"signal":"1","merkleTreeRoot":"1234","externalNullifier":"5","nullifierHash":"6"}]
}]}}`

func TestGroupDecodesRecord(t *testing.T) {
	var got gqlRequest
	srv := newServer(t, func(req gqlRequest) (int, string) {
		got = req
		return http.StatusOK, groupResponse
	})
	c := New(map[string]string{"sepolia": srv.URL}, 0)

	g, err := c.Group(context.Background(), "sepolia", "42", group.Fields{Members: true, VerifiedProofs: true})
	require.NoError(t, err)
	require.Equal(t, "42", got.Variables["id"])
	require.Contains(t, got.Query, "members(")
	require.Contains(t, got.Query, "verifiedProofs(")

	require.Equal(t, "42", g.ID)
	require.NotEmpty(t, g.Admin)
	require.Equal(t, group.MerkleTree{Root: "1234", Depth: 20, ZeroValue: "0", NumberOfLeaves: 2}, g.MerkleTree)
	require.Equal(t, []string{"111", "222"}, g.Members)
	require.Len(t, g.VerifiedProofs, 1)
	require.Equal(t, "6", g.VerifiedProofs[0].NullifierHash)
}

func TestGroupSkipsUnrequestedCollections(t *testing.T) {
	srv := newServer(t, func(req gqlRequest) (int, string) {
		if strings.Contains(req.Query, "members(") {
			t.Errorf("members should not be queried: %s", req.Query)
		}
		return http.StatusOK, `{"data":{"groups":[{"id":"42","admin":null,"merkleTree":{"root":"1","depth":"16","zeroValue":"0","numberOfLeaves":0}}]}}`
	})
	c := New(map[string]string{"sepolia": srv.URL}, 0)

	g, err := c.Group(context.Background(), "sepolia", "42", group.Fields{})
	require.NoError(t, err)
	require.Nil(t, g.Members, "unrequested members stay nil")
	require.Nil(t, g.VerifiedProofs, "unrequested proofs stay nil")
	require.Empty(t, g.Admin, "null admin decodes empty")
	require.Equal(t, 16, g.MerkleTree.Depth, "string depth is parsed")
}

func TestGroupNotFound(t *testing.T) {
	srv := newServer(t, func(gqlRequest) (int, string) {
		return http.StatusOK, `{"data":{"groups":[]}}`
	})
	c := New(map[string]string{"sepolia": srv.URL}, 0)

	_, err := c.Group(context.Background(), "sepolia", "999", group.Fields{})
	require.ErrorIs(t, err, group.ErrNotFound)
}

func TestGroupFailuresAreNotNotFound(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"http_error", http.StatusBadGateway, `{}`},
		{"graphql_error", http.StatusOK, `{"errors":[{"message":"indexing_error"}]}`},
		{"invalid_json", http.StatusOK, `{"data":`},
		{"missing_groups", http.StatusOK, `{"data":{}}`},
		{"missing_tree", http.StatusOK, `{"data":{"groups":[{"id":"1"}]}}`},
		{"null_tree", http.StatusOK, `{"data":{"groups":[{"id":"42","admin":null,"merkleTree":null}]}}`},
		{"scalar_tree", http.StatusOK, `{"data":{"groups":[{"id":"42","merkleTree":"0x1"}]}}`},
		{"empty_tree", http.StatusOK, `{"data":{"groups":[{"id":"42","merkleTree":{}}]}}`},
		{"null_root", http.StatusOK, `{"data":{"groups":[{"id":"42","merkleTree":{"root":null,"depth":20,"zeroValue":"0","numberOfLeaves":0}}]}}`},
		{"missing_depth", http.StatusOK, `{"data":{"groups":[{"id":"42","merkleTree":{"root":"1","zeroValue":"0","numberOfLeaves":0}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(gqlRequest) (int, string) { return tt.code, tt.body })
			c := New(map[string]string{"sepolia": srv.URL}, 0)

			g, err := c.Group(context.Background(), "sepolia", "42", group.Fields{})
			require.Error(t, err)
			require.Nil(t, g)
			require.NotErrorIs(t, err, group.ErrNotFound, "failure must not be reported as not found")
		})
	}
}

func TestUnknownNetwork(t *testing.T) {
	c := New(map[string]string{"sepolia": "", "goerli": "http://unused"}, 0)
	_, err := c.Group(context.Background(), "sepolia", "1", group.Fields{})
	require.Error(t, err, "network without endpoint")
}

func TestGroupIDs(t *testing.T) {
	srv := newServer(t, func(req gqlRequest) (int, string) {
		return http.StatusOK, `{"data":{"groups":[{"id":"1"},{"id":"42"},{"id":"7"}]}}`
	})
	c := New(map[string]string{"sepolia": srv.URL}, 0)

	ids, err := c.GroupIDs(context.Background(), "sepolia")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "42", "7"}, ids)
}

func TestGroupIDsPagesPastOnePage(t *testing.T) {
	all := make([]string, 7)
	for i := range all {
		all[i] = strconv.Itoa(i + 10)
	}
	var afters []any
	srv := newServer(t, func(req gqlRequest) (int, string) {
		afters = append(afters, req.Variables["after"])
		after, _ := req.Variables["after"].(string)
		first := int(req.Variables["first"].(float64))

		var page []string
		for _, id := range all {
			if id > after && len(page) < first {
				page = append(page, `{"id":"`+id+`"}`)
			}
		}
		return http.StatusOK, `{"data":{"groups":[` + strings.Join(page, ",") + `]}}`
	})
	c := New(map[string]string{"sepolia": srv.URL}, 0)
	c.pageSize = 3

	ids, err := c.GroupIDs(context.Background(), "sepolia")
	require.NoError(t, err)
	require.Equal(t, all, ids)
	require.Equal(t, []any{"", "12", "15"}, afters)
}

func TestGroupIDsFullLastPage(t *testing.T) {
	calls := 0
	srv := newServer(t, func(req gqlRequest) (int, string) {
		calls++
		if req.Variables["after"] == "" {
			return http.StatusOK, `{"data":{"groups":[{"id":"1"},{"id":"2"}]}}`
		}
		return http.StatusOK, `{"data":{"groups":[]}}`
	})
	c := New(map[string]string{"sepolia": srv.URL}, 0)
	c.pageSize = 2

	ids, err := c.GroupIDs(context.Background(), "sepolia")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ids)
	require.Equal(t, 2, calls)
}

func TestGroupIDsPageFailure(t *testing.T) {
	srv := newServer(t, func(req gqlRequest) (int, string) {
		if req.Variables["after"] == "" {
			return http.StatusOK, `{"data":{"groups":[{"id":"1"},{"id":"2"}]}}`
		}
		return http.StatusBadGateway, `{}`
	})
	c := New(map[string]string{"sepolia": srv.URL}, 0)
	c.pageSize = 2

	ids, err := c.GroupIDs(context.Background(), "sepolia")
	require.Error(t, err, "a failed page must not yield a truncated list")
	require.Nil(t, ids)
}

func TestPing(t *testing.T) {
	srv := newServer(t, func(req gqlRequest) (int, string) {
		return http.StatusOK, `{"data":{"_meta":{"block":{"number":4567}}}}`
	})
	c := New(map[string]string{"sepolia": srv.URL}, 0)

	n, err := c.Ping(context.Background(), "sepolia")
	require.NoError(t, err)
	require.Equal(t, uint64(4567), n)
}
