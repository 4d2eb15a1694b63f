package db

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/Factom-Asset-Tokens/factom-api/factom"
)

// CreateTableEntries is a SQL string that creates the "entries" table, which
// stores the entries of any number of chains. Each entry is stored once.
const CreateTableEntries = `CREATE TABLE "entries" (
        "id"            INTEGER PRIMARY KEY,
        "chain_id"      BLOB NOT NULL,
        "hash"          BLOB NOT NULL UNIQUE,
        "height"        INTEGER NOT NULL,
        "timestamp"     INTEGER NOT NULL,
        "ext_ids"       BLOB NOT NULL,
        "content"       BLOB NOT NULL
);
CREATE INDEX "idx_entries_chain_id_height" ON "entries"("chain_id", "height");
`

// InsertEntry inserts e into the "entries" table, unless an entry with the
// same hash already exists. The returned bool reports whether a row was
// inserted.
//
// The e.Context is required and e.ExtIDs and e.Content must be raw bytes.
func InsertEntry(conn *sqlite.Conn, e factom.ChainEntry) (bool, error) {
	if e.Context == nil {
		return false, fmt.Errorf("entry has no context")
	}
	extIDs, err := marshalExtIDs(e.ExtIDs)
	if err != nil {
		return false, err
	}

	stmt := conn.Prep(`INSERT OR IGNORE INTO "entries"
                ("chain_id", "hash", "height", "timestamp", "ext_ids", "content")
                VALUES (?, ?, ?, ?, ?, ?);`)
	stmt.BindBytes(1, e.ChainID[:])
	stmt.BindBytes(2, e.Context.Hash[:])
	stmt.BindInt64(3, int64(e.Context.Height))
	stmt.BindInt64(4, e.Context.Timestamp.Unix())
	bindBytes(stmt, 5, extIDs)
	bindBytes(stmt, 6, e.Content)
	if _, err := stmt.Step(); err != nil {
		return false, err
	}
	return conn.Changes() > 0, nil
}

// InsertEntries inserts all of es within a single savepoint, and returns the
// number of rows inserted. Nothing is inserted if any insert fails.
func InsertEntries(conn *sqlite.Conn, es []factom.ChainEntry) (n int, err error) {
	defer sqlitex.Save(conn)(&err)
	for _, e := range es {
		inserted, err := InsertEntry(conn, e)
		if err != nil {
			return 0, fmt.Errorf("entry %v: %w", e.Context.Hash, err)
		}
		if inserted {
			n++
		}
	}
	return n, nil
}

// SelectEntries returns all stored entries of chainID at or above fromHeight,
// in chain order.
func SelectEntries(conn *sqlite.Conn, chainID factom.Bytes32,
	fromHeight uint32) ([]factom.ChainEntry, error) {
	stmt := conn.Prep(`SELECT "hash", "height", "timestamp", "ext_ids", "content"
                FROM "entries" WHERE "chain_id" = ? AND "height" >= ?
                ORDER BY "height", "id";`)
	defer stmt.Reset()
	stmt.BindBytes(1, chainID[:])
	stmt.BindInt64(2, int64(fromHeight))

	var es []factom.ChainEntry
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		e := factom.ChainEntry{ChainID: chainID,
			Context: &factom.EntryContext{}}
		if stmt.ColumnBytes(0, e.Context.Hash[:]) != len(e.Context.Hash) {
			return nil, fmt.Errorf("invalid hash length")
		}
		e.Context.Height = uint32(stmt.ColumnInt64(1))
		e.Context.Timestamp = time.Unix(stmt.ColumnInt64(2), 0)

		extIDs := make([]byte, stmt.ColumnLen(3))
		stmt.ColumnBytes(3, extIDs)
		if e.ExtIDs, err = unmarshalExtIDs(extIDs); err != nil {
			return nil, fmt.Errorf("entry %v: %w", e.Context.Hash, err)
		}

		e.Content = make([]byte, stmt.ColumnLen(4))
		stmt.ColumnBytes(4, e.Content)
		es = append(es, e)
	}
	return es, nil
}

// SelectEntryCount returns the number of stored entries of chainID.
func SelectEntryCount(conn *sqlite.Conn, chainID factom.Bytes32) (int64, error) {
	stmt := conn.Prep(`SELECT count(*) FROM "entries" WHERE "chain_id" = ?;`)
	stmt.BindBytes(1, chainID[:])
	return sqlitex.ResultInt64(stmt)
}

// SelectLatestHeight returns the greatest height of any stored entry of
// chainID. The returned bool is false if no entries of chainID are stored.
func SelectLatestHeight(conn *sqlite.Conn, chainID factom.Bytes32) (uint32, bool, error) {
	var height uint32
	var found bool
	err := sqlitex.Exec(conn, `SELECT max("height") FROM "entries"
                WHERE "chain_id" = ?;`,
		func(stmt *sqlite.Stmt) error {
			if stmt.ColumnType(0) == sqlite.SQLITE_NULL {
				return nil
			}
			height = uint32(stmt.ColumnInt64(0))
			found = true
			return nil
		}, chainID[:])
	return height, found, err
}

// marshalExtIDs encodes each ExtID as its big endian uint16 length followed by
// its data, which is how ExtIDs are laid out in a marshaled Factom Entry.
func marshalExtIDs(extIDs [][]byte) ([]byte, error) {
	size := 0
	for _, extID := range extIDs {
		if len(extID) > math.MaxUint16 {
			return nil, fmt.Errorf("ExtID too long: %v", len(extID))
		}
		size += 2 + len(extID)
	}
	data := make([]byte, 0, size)
	var l [2]byte
	for _, extID := range extIDs {
		binary.BigEndian.PutUint16(l[:], uint16(len(extID)))
		data = append(data, l[:]...)
		data = append(data, extID...)
	}
	return data, nil
}

func unmarshalExtIDs(data []byte) ([][]byte, error) {
	extIDs := [][]byte{}
	for len(data) > 0 {
		if len(data) < 2 {
			return nil, fmt.Errorf("invalid ExtIDs: truncated length")
		}
		l := int(binary.BigEndian.Uint16(data))
		data = data[2:]
		if len(data) < l {
			return nil, fmt.Errorf("invalid ExtIDs: truncated data")
		}
		extIDs = append(extIDs, append([]byte{}, data[:l]...))
		data = data[l:]
	}
	return extIDs, nil
}
