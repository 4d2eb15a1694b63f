package srv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	jsonrpc2 "github.com/AdamSLevy/jsonrpc2/v14"
	"github.com/Factom-Asset-Tokens/factom-api/api"
	"github.com/Factom-Asset-Tokens/factom-api/db"
	"github.com/Factom-Asset-Tokens/factom-api/factom"
)

func methods(pool *sqlitex.Pool, revision string) jsonrpc2.MethodMap {
	return jsonrpc2.MethodMap{
		"get-events":      getEvents(pool),
		"get-event-count": getEventCount(pool),
		"get-entries":     getEntries(pool),

		"get-daemon-properties": getDaemonProperties(pool, revision),
	}
}

func getEvents(pool *sqlitex.Pool) jsonrpc2.MethodFunc {
	return func(ctx context.Context, data json.RawMessage) interface{} {
		var params api.ParamsGetEvents
		if err := validate(data, &params); err != nil {
			return err
		}
		conn, put, err := get(ctx, pool)
		if err != nil {
			return err
		}
		defer put()

		// Fetch one extra event to learn whether there are more.
		events, err := db.SelectEvents(conn, params.After, params.Limit+1)
		if err != nil {
			return internalError(err)
		}
		var result api.ResultGetEvents
		if len(events) > params.Limit {
			events = events[:params.Limit]
			result.More = true
		}
		result.Events = make([]api.Event, len(events))
		for i, e := range events {
			result.Events[i] = api.Event{
				ID:       e.ID,
				Received: e.Received.UnixNano(),
				Data:     e.Data,
			}
		}
		return result
	}
}

func getEventCount(pool *sqlitex.Pool) jsonrpc2.MethodFunc {
	return func(ctx context.Context, data json.RawMessage) interface{} {
		if err := validate(data, nil); err != nil {
			return err
		}
		conn, put, err := get(ctx, pool)
		if err != nil {
			return err
		}
		defer put()

		count, err := db.SelectEventCount(conn)
		if err != nil {
			return internalError(err)
		}
		return api.ResultGetEventCount{Count: count}
	}
}

func getEntries(pool *sqlitex.Pool) jsonrpc2.MethodFunc {
	return func(ctx context.Context, data json.RawMessage) interface{} {
		var params api.ParamsGetEntries
		if err := validate(data, &params); err != nil {
			return err
		}
		conn, put, err := get(ctx, pool)
		if err != nil {
			return err
		}
		defer put()

		es, err := db.SelectEntries(conn, *params.ChainID, params.FromHeight)
		if err != nil {
			return internalError(err)
		}
		entries := make([]api.Entry, len(es))
		for i, e := range es {
			hash := e.Context.Hash
			entries[i] = api.Entry{
				Hash:      &hash,
				Timestamp: e.Context.Timestamp.Unix(),
				Height:    e.Context.Height,
				ExtIDs:    make([]factom.Bytes, len(e.ExtIDs)),
				Content:   e.Content,
			}
			for j, extID := range e.ExtIDs {
				entries[i].ExtIDs[j] = extID
			}
		}
		return entries
	}
}

func getDaemonProperties(pool *sqlitex.Pool, revision string) jsonrpc2.MethodFunc {
	return func(_ context.Context, data json.RawMessage) interface{} {
		if err := validate(data, nil); err != nil {
			return err
		}
		return api.ResultGetDaemonProperties{
			Version:    revision,
			APIVersion: api.APIVersion,
			Recording:  pool != nil,
		}
	}
}

type params interface {
	IsValid() error
}

func validate(data json.RawMessage, p params) error {
	if p == nil {
		if len(data) > 0 && string(data) != "null" {
			return jsonrpc2.ErrorInvalidParams(`no "params" accepted`)
		}
		return nil
	}
	if len(data) > 0 {
		if err := unmarshalStrict(data, p); err != nil {
			return jsonrpc2.ErrorInvalidParams(err.Error())
		}
	}
	return p.IsValid()
}

func unmarshalStrict(data []byte, v interface{}) error {
	d := json.NewDecoder(bytes.NewBuffer(data))
	d.DisallowUnknownFields()
	return d.Decode(v)
}

// get a read only Conn from pool and a func to return it.
func get(ctx context.Context, pool *sqlitex.Pool) (*sqlite.Conn, func(), error) {
	if pool == nil {
		return nil, nil, api.ErrorNotRecording
	}
	conn := pool.Get(ctx)
	if conn == nil {
		if err := ctx.Err(); err != nil {
			return nil, nil, internalError(err)
		}
		return nil, nil, internalError(fmt.Errorf("pool closed"))
	}
	return conn, func() { pool.Put(conn) }, nil
}

func internalError(err error) jsonrpc2.Error {
	return jsonrpc2.Error{Code: -32603, Message: "Internal error",
		Data: err.Error()}
}
