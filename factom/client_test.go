package factom_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/Factom-Asset-Tokens/factom-api/factom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

var (
	errBlockNotFound    = &jsonError{Code: -32008, Message: "Block not found"}
	errMissingChainHead = &jsonError{Code: -32009, Message: "Missing Chain Head"}
)

type methodFunc func(params json.RawMessage) (interface{}, *jsonError)

// newFactomd serves the given methods the way factomd's v2 API does.
func newFactomd(t *testing.T, methods map[string]methodFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				ID     json.RawMessage `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("invalid request: %v", err)
				return
			}
			res := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
			method, ok := methods[req.Method]
			if !ok {
				res["error"] = jsonError{Code: -32601,
					Message: "Method not found"}
			} else if result, jErr := method(req.Params); jErr != nil {
				res["error"] = jErr
			} else {
				res["result"] = result
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(res); err != nil {
				t.Errorf("json.Encode(): %v", err)
			}
		}))
}

// factomdMethods serves the chain in src.
func factomdMethods(src *fakeSource) map[string]methodFunc {
	return map[string]methodFunc{
		"chain-head": func(data json.RawMessage) (interface{}, *jsonError) {
			var params struct {
				ChainID Bytes32 `json:"chainid"`
			}
			if err := json.Unmarshal(data, &params); err != nil {
				return nil, &jsonError{Code: -32602, Message: "Invalid params"}
			}
			head, ok := src.heads[params.ChainID]
			if !ok {
				return nil, errMissingChainHead
			}
			return map[string]interface{}{
				"chainhead": head, "chaininprocesslist": false}, nil
		},
		"entry-block": func(data json.RawMessage) (interface{}, *jsonError) {
			var params struct {
				KeyMR Bytes32 `json:"keymr"`
			}
			if err := json.Unmarshal(data, &params); err != nil {
				return nil, &jsonError{Code: -32602, Message: "Invalid params"}
			}
			eb, ok := src.eblocks[params.KeyMR]
			if !ok {
				return nil, errBlockNotFound
			}
			type entry struct {
				Hash      *Bytes32 `json:"entryhash"`
				Timestamp int64    `json:"timestamp"`
			}
			entries := make([]entry, len(eb.Entries))
			for i, e := range eb.Entries {
				entries[i] = entry{e.Hash, e.Timestamp.Unix()}
			}
			return map[string]interface{}{
				"header": map[string]interface{}{
					"blocksequencenumber": 0,
					"chainid":             eb.ChainID,
					"prevkeymr":           eb.PrevKeyMR,
					"timestamp":           0,
					"dbheight":            eb.Height,
				},
				"entrylist": entries,
			}, nil
		},
		"entry": func(data json.RawMessage) (interface{}, *jsonError) {
			var params struct {
				Hash Bytes32 `json:"hash"`
			}
			if err := json.Unmarshal(data, &params); err != nil {
				return nil, &jsonError{Code: -32602, Message: "Invalid params"}
			}
			e, ok := src.entries[params.Hash]
			if !ok {
				return nil, &jsonError{Code: -32008, Message: "Entry not found"}
			}
			return e, nil
		},
		"dblock-by-height": func(data json.RawMessage) (interface{}, *jsonError) {
			var params struct {
				Height uint32 `json:"height"`
			}
			if err := json.Unmarshal(data, &params); err != nil {
				return nil, &jsonError{Code: -32602, Message: "Invalid params"}
			}
			db, ok := src.dblocks[params.Height]
			if !ok {
				return nil, errBlockNotFound
			}
			dbEntries := make([]map[string]interface{}, len(db.EBlocks))
			for i, eb := range db.EBlocks {
				dbEntries[i] = map[string]interface{}{
					"chainid": eb.ChainID, "keymr": eb.KeyMR}
			}
			return map[string]interface{}{
				"dblock": map[string]interface{}{
					"header":    map[string]interface{}{"dbheight": db.Height},
					"dbentries": dbEntries,
					"keymr":     Bytes32{0xdb},
				},
			}, nil
		},
		"heights": func(json.RawMessage) (interface{}, *jsonError) {
			return map[string]interface{}{
				"directoryblockheight": 30,
				"leaderheight":         31,
				"entryblockheight":     30,
				"entryheight":          29,
			}, nil
		},
		"properties": func(json.RawMessage) (interface{}, *jsonError) {
			return map[string]interface{}{
				"factomdversion":    "6.6.0",
				"factomdapiversion": "2.0",
			}, nil
		},
	}
}

func newTestClient(factomd, walletd string) *Client {
	c := NewClient()
	c.FactomdServer = factomd
	c.WalletdServer = walletd
	c.Factomd.Timeout = 5 * time.Second
	c.Walletd.Timeout = 5 * time.Second
	return c
}

func TestClientChainReader(t *testing.T) {
	ctx := context.Background()
	src, keyMRs, hashes := newTestChain()
	srv := newFactomd(t, factomdMethods(src))
	defer srv.Close()
	c := newTestClient(srv.URL, srv.URL)
	r := NewChainReader(c)

	t.Run("ReadChain", func(t *testing.T) {
		es, err := r.ReadChain(testChainID,
			ReadOptions{IncludeContext: true}).All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, contents(es))
		assert.Equal(t, hashes[2][0], es[3].Context.Hash)
		assert.Equal(t, uint32(30), es[3].Context.Height)
		assert.Equal(t, src.eblocks[keyMRs[2]].Entries[0].Timestamp,
			es[3].Context.Timestamp)
		assert.Equal(t, "ext:d", string(es[3].ExtIDs[0]))
	})

	t.Run("FromHeight", func(t *testing.T) {
		es, err := r.ReadChain(testChainID,
			ReadOptions{FromHeight: 20}).All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "d"}, contents(es))
	})

	t.Run("MissingChainHead", func(t *testing.T) {
		es, err := r.ReadChain(otherChainID, ReadOptions{}).All(ctx)
		require.NoError(t, err)
		assert.Empty(t, es)
	})

	t.Run("EntriesAtHeight", func(t *testing.T) {
		es, err := r.EntriesAtHeight(testChainID, 20, ReadOptions{}).All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, contents(es))

		_, err = r.EntriesAtHeight(testChainID, 21, ReadOptions{}).All(ctx)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("BlockNotFound", func(t *testing.T) {
		_, err := c.EBlock(ctx, Bytes32{0xff})
		var rErr *RemoteError
		require.True(t, errors.As(err, &rErr))
		assert.Equal(t, ErrorCodeBlockNotFound, rErr.Code)
		assert.Equal(t, "entry-block", rErr.Method)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrMissingChainHead))
	})

	t.Run("EBlock.Get", func(t *testing.T) {
		eb := EBlock{ChainID: &testChainID}
		require.NoError(t, eb.Get(ctx, c))
		assert.Equal(t, keyMRs[2], *eb.KeyMR)
		assert.False(t, eb.IsFirst())
		prev := eb.Prev()
		assert.Equal(t, keyMRs[1], *prev.KeyMR)

		first := EBlock{KeyMR: &keyMRs[0]}
		require.NoError(t, first.Get(ctx, c))
		assert.True(t, first.IsFirst())
		assert.Equal(t, first, first.Prev())

		missing := EBlock{ChainID: &otherChainID}
		assert.True(t, errors.Is(missing.Get(ctx, c), ErrMissingChainHead))

		assert.EqualError(t, (&EBlock{}).Get(ctx, c),
			"KeyMR and ChainID are both nil")
	})

	t.Run("Heights", func(t *testing.T) {
		var h Heights
		require.NoError(t, h.Get(ctx, c))
		assert.Equal(t, Heights{DirectoryBlock: 30, Leader: 31,
			EntryBlock: 30, Entry: 29}, h)
	})

	t.Run("Properties", func(t *testing.T) {
		var p Properties
		require.NoError(t, p.Get(ctx, c, true))
		assert.Equal(t, "6.6.0", p.FactomdVersion)
		assert.Equal(t, "2.0", p.FactomdAPIVersion)
	})

	t.Run("MethodNotFound", func(t *testing.T) {
		err := c.WalletdRequest(ctx, "compose-entry", nil, nil)
		assert.True(t, errors.Is(err, ErrMethodNotFound))
		assert.False(t, errors.Is(err, ErrNotFound))
	})
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(url, url)
	_, err := c.ChainHead(context.Background(), testChainID)
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "chain-head", tErr.Method)
	assert.Equal(t, url, tErr.URL)
	assert.NotNil(t, errors.Unwrap(err))

	var rErr *RemoteError
	assert.False(t, errors.As(err, &rErr))
}
