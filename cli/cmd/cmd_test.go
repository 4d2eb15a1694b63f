package cmd

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Factom-Asset-Tokens/factom-api/api"
	"github.com/Factom-Asset-Tokens/factom-api/db"
	"github.com/Factom-Asset-Tokens/factom-api/factom"
	_log "github.com/Factom-Asset-Tokens/factom-api/log"
	"github.com/Factom-Asset-Tokens/factom-api/srv"
	"github.com/nightlyone/lockfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testChainID = factom.Bytes32(sha256.Sum256([]byte("cli chain")))
	testKeyMR   = factom.Bytes32(sha256.Sum256([]byte("cli eblock")))
	testHash    = factom.Bytes32(sha256.Sum256([]byte("cli entry")))
)

// newFactomd serves a single chain with a single entry.
func newFactomd(t *testing.T) *httptest.Server {
	results := map[string]interface{}{
		"heights": map[string]interface{}{
			"directoryblockheight": 5,
			"leaderheight":         6,
			"entryblockheight":     5,
			"entryheight":          4,
		},
		"properties": map[string]interface{}{
			"factomdversion":    "6.6.0",
			"factomdapiversion": "2.0",
		},
		"chain-head": map[string]interface{}{
			"chainhead":          testKeyMR,
			"chaininprocesslist": false,
		},
		"entry-block": map[string]interface{}{
			"header": map[string]interface{}{
				"chainid":   testChainID,
				"prevkeymr": factom.Bytes32{},
				"dbheight":  5,
			},
			"entrylist": []interface{}{map[string]interface{}{
				"entryhash": testHash,
				"timestamp": 1560000000,
			}},
		},
		"entry": map[string]interface{}{
			"chainid": testChainID,
			"extids":  []string{hex.EncodeToString([]byte("ext"))},
			"content": hex.EncodeToString([]byte("hello")),
		},
	}
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				ID     json.RawMessage `json:"id"`
				Method string          `json:"method"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("invalid request: %v", err)
				return
			}
			res := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
			if result, ok := results[req.Method]; ok {
				res["result"] = result
			} else {
				res["error"] = map[string]interface{}{
					"code": -32601, "message": "Method not found"}
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(res); err != nil {
				t.Errorf("json.Encode(): %v", err)
			}
		}))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	readOpts = factom.ReadOptions{}
	exportPath = ""
	eventsParams = api.ParamsGetEvents{}
	eventsAll, eventsCount = false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	srv := newFactomd(t)
	defer srv.Close()
	chainID := testChainID.String()

	t.Run("heights", func(t *testing.T) {
		out, err := execute(t, "heights", "-s", srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Directory Block: 5\nLeader: 6\nEntry Block: 5\nEntry: 4\n", out)
		assert.Equal(t, srv.URL, FactomClient.FactomdServer)
	})

	t.Run("properties", func(t *testing.T) {
		out, err := execute(t, "properties", "--factomd-only", "-s", srv.URL)
		require.NoError(t, err)
		assert.Contains(t, out, "factomd: 6.6.0\nfactomd API: 2.0\n")
		assert.NotContains(t, out, "factom-walletd")
	})

	t.Run("chain", func(t *testing.T) {
		out, err := execute(t, "chain", "--context", "-s", srv.URL, chainID)
		require.NoError(t, err)
		assert.Equal(t, "Chain ID: "+chainID+"\n"+
			"Entry Hash: "+testHash.String()+"\n"+
			"Timestamp: 1560000000\n"+
			"Height: 5\n"+
			"ExtIDs:\n"+
			"  0: \"ext\"\n"+
			"Content: \"hello\"\n\n", out)
	})

	t.Run("chain --hex", func(t *testing.T) {
		out, err := execute(t, "chain", "--hex", "-s", srv.URL, chainID)
		require.NoError(t, err)
		assert.Contains(t, out, "  0: 657874\n")
		assert.Contains(t, out, "Content: 68656c6c6f\n")
	})

	t.Run("chain duplicate", func(t *testing.T) {
		_, err := execute(t, "chain", "-s", srv.URL, chainID, chainID)
		assert.EqualError(t, err, "duplicate: "+chainID)
	})

	t.Run("entries", func(t *testing.T) {
		_, err := execute(t, "entries", "-s", srv.URL, chainID)
		assert.Error(t, err)
	})

	t.Run("chain --export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chains.sqlite3")
		out, err := execute(t, "chain", "--export", path, "-s", srv.URL, chainID)
		require.NoError(t, err)
		assert.Equal(t, "Chain ID: "+chainID+"\nNew Entries: 1\n\n", out)

		// Exporting again only reads above the stored height.
		out, err = execute(t, "chain", "--export", path, "-s", srv.URL, chainID)
		require.NoError(t, err)
		assert.Equal(t, "Chain ID: "+chainID+"\nNew Entries: 0\n\n", out)

		conn, err := db.Open(context.Background(), path)
		require.NoError(t, err)
		defer db.Close(conn)
		es, err := db.SelectEntries(conn, testChainID, 0)
		require.NoError(t, err)
		require.Len(t, es, 1)
		assert.Equal(t, "hello", string(es[0].Content))
		assert.Equal(t, [][]byte{[]byte("ext")}, es[0].ExtIDs)
		assert.Equal(t, testHash, es[0].Context.Hash)
		assert.Equal(t, uint32(5), es[0].Context.Height)

		// The lock is released after each export.
		_, err = os.Stat(path + ".lock")
		assert.True(t, os.IsNotExist(err))

		// A database locked by another live process is not exported to.
		require.NoError(t, ioutil.WriteFile(path+".lock",
			[]byte(fmt.Sprintf("%d\n", os.Getppid())), 0644))
		_, err = execute(t, "chain", "--export", path, "-s", srv.URL, chainID)
		assert.True(t, errors.Is(err, lockfile.ErrBusy), "%v", err)
	})
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "livefeed.sqlite3")
	conn, err := db.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close(conn)
	for _, msg := range []string{"one", "two"} {
		_, err := db.InsertEvent(conn, time.Unix(1560000000, 0), []byte(msg))
		require.NoError(t, err)
	}
	pool, err := db.OpenPool(path, 1)
	require.NoError(t, err)
	defer pool.Close()

	livefeedd := httptest.NewServer(srv.Handler(pool, "test", _log.New("srv")))
	defer livefeedd.Close()

	out, err := execute(t, "events", "--count", "-l", livefeedd.URL)
	require.NoError(t, err)
	assert.Equal(t, "Events: 2\n", out)

	first := "Event: 1\nReceived: 2019-06-08T13:20:00Z\nData: 6f6e65\n\n"
	second := "Event: 2\nReceived: 2019-06-08T13:20:00Z\nData: 74776f\n\n"

	out, err = execute(t, "events", "--limit", "1", "-l", livefeedd.URL)
	require.NoError(t, err)
	assert.Equal(t, first, out)

	out, err = execute(t, "events", "--limit", "1", "--all", "-l", livefeedd.URL)
	require.NoError(t, err)
	assert.Equal(t, first+second, out)

	out, err = execute(t, "events", "--after", "1", "-l", livefeedd.URL)
	require.NoError(t, err)
	assert.Equal(t, second, out)
}
