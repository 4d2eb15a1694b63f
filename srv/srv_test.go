package srv_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	jsonrpc2 "github.com/AdamSLevy/jsonrpc2/v14"
	"github.com/Factom-Asset-Tokens/factom-api/api"
	"github.com/Factom-Asset-Tokens/factom-api/db"
	"github.com/Factom-Asset-Tokens/factom-api/factom"
	"github.com/Factom-Asset-Tokens/factom-api/log"
	. "github.com/Factom-Asset-Tokens/factom-api/srv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chainID = factom.Bytes32(sha256.Sum256([]byte("srv chain")))

func newClient(t *testing.T, h http.Handler) *api.Client {
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c := api.NewClient()
	c.LivefeeddServer = ts.URL
	return c
}

func requireErrorCode(t *testing.T, code int, err error) {
	t.Helper()
	var jErr jsonrpc2.Error
	require.True(t, errors.As(err, &jErr), "%v", err)
	assert.EqualValues(t, code, jErr.Code)
}

func TestMethods(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "livefeed.sqlite3")
	conn, err := db.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close(conn)

	received := time.Unix(1560000000, 0)
	for _, msg := range []string{"one", "two", "three"} {
		_, err := db.InsertEvent(conn, received, []byte(msg))
		require.NoError(t, err)
	}
	e := factom.ChainEntry{
		ChainID: chainID,
		ExtIDs:  [][]byte{[]byte("ext")},
		Content: []byte("content"),
		Context: &factom.EntryContext{
			Hash:      sha256.Sum256([]byte("entry")),
			Timestamp: received,
			Height:    7,
		},
	}
	_, err = db.InsertEntry(conn, e)
	require.NoError(t, err)

	pool, err := db.OpenPool(path, 2)
	require.NoError(t, err)
	defer pool.Close()

	c := newClient(t, Handler(pool, "v1.2.3", log.New("srv")))

	t.Run("get-event-count", func(t *testing.T) {
		var res api.ResultGetEventCount
		require.NoError(t, c.Request(ctx, "get-event-count", nil, &res))
		assert.Equal(t, int64(3), res.Count)
	})

	t.Run("get-events", func(t *testing.T) {
		var res api.ResultGetEvents
		require.NoError(t, c.Request(ctx, "get-events",
			api.ParamsGetEvents{Limit: 2}, &res))
		require.Len(t, res.Events, 2)
		assert.True(t, res.More)
		assert.Equal(t, int64(1), res.Events[0].ID)
		assert.Equal(t, "one", string(res.Events[0].Data))
		assert.Equal(t, received.UnixNano(), res.Events[0].Received)

		res = api.ResultGetEvents{}
		require.NoError(t, c.Request(ctx, "get-events",
			api.ParamsGetEvents{After: 2}, &res))
		require.Len(t, res.Events, 1)
		assert.False(t, res.More)
		assert.Equal(t, "three", string(res.Events[0].Data))
	})

	t.Run("get-events invalid", func(t *testing.T) {
		err := c.Request(ctx, "get-events",
			api.ParamsGetEvents{Limit: api.MaxLimit + 1}, nil)
		requireErrorCode(t, -32602, err)

		err = c.Request(ctx, "get-events",
			map[string]interface{}{"start": 1}, nil)
		requireErrorCode(t, -32602, err)
	})

	t.Run("get-entries", func(t *testing.T) {
		var res []api.Entry
		require.NoError(t, c.Request(ctx, "get-entries",
			api.ParamsGetEntries{ChainID: &chainID}, &res))
		require.Len(t, res, 1)
		assert.Equal(t, e.Context.Hash, *res[0].Hash)
		assert.Equal(t, uint32(7), res[0].Height)
		assert.Equal(t, received.Unix(), res[0].Timestamp)
		assert.Equal(t, "content", string(res[0].Content))
		require.Len(t, res[0].ExtIDs, 1)
		assert.Equal(t, "ext", string(res[0].ExtIDs[0]))

		res = nil
		require.NoError(t, c.Request(ctx, "get-entries",
			api.ParamsGetEntries{ChainID: &chainID, FromHeight: 8}, &res))
		assert.Empty(t, res)

		err := c.Request(ctx, "get-entries", api.ParamsGetEntries{}, nil)
		requireErrorCode(t, -32602, err)
	})

	t.Run("get-daemon-properties", func(t *testing.T) {
		var res api.ResultGetDaemonProperties
		require.NoError(t, c.Request(ctx, "get-daemon-properties", nil, &res))
		assert.Equal(t, api.ResultGetDaemonProperties{
			Version: "v1.2.3", APIVersion: api.APIVersion,
			Recording: true}, res)
	})
}

func TestNotRecording(t *testing.T) {
	ctx := context.Background()
	h := Handler(nil, "v1.2.3", log.New("srv"))
	c := newClient(t, h)

	var props api.ResultGetDaemonProperties
	require.NoError(t, c.Request(ctx, "get-daemon-properties", nil, &props))
	assert.False(t, props.Recording)

	err := c.Request(ctx, "get-events", nil, nil)
	requireErrorCode(t, -32800, err)

	err = c.Request(ctx, "get-event-count", nil, nil)
	requireErrorCode(t, -32800, err)

	// The version headers are set on every response.
	ts := httptest.NewServer(h)
	defer ts.Close()
	res, err := http.Post(ts.URL, "application/json", bytes.NewBufferString(
		`{"jsonrpc":"2.0","id":1,"method":"get-daemon-properties"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "v1.2.3", res.Header.Get("Livefeedd-Version"))
	assert.Equal(t, api.APIVersion, res.Header.Get("Livefeedd-Api-Version"))
}
