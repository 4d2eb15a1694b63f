package db

import (
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

// CreateTableEvents is a SQL string that creates the "events" table, which
// records every LiveFeed message in the order it was received.
const CreateTableEvents = `CREATE TABLE "events" (
        "id"            INTEGER PRIMARY KEY,
        "received"      INTEGER NOT NULL,
        "data"          BLOB NOT NULL
);
`

// Event is a LiveFeed message as stored in the "events" table.
type Event struct {
	ID       int64
	Received time.Time
	Data     []byte
}

// InsertEvent inserts data, received at the given time, into the "events"
// table. If successful, the new row id is returned.
func InsertEvent(conn *sqlite.Conn, received time.Time, data []byte) (int64, error) {
	stmt := conn.Prep(`INSERT INTO "events" ("received", "data") VALUES (?, ?);`)
	stmt.BindInt64(1, received.UnixNano())
	bindBytes(stmt, 2, data)
	if _, err := stmt.Step(); err != nil {
		return -1, err
	}
	return conn.LastInsertRowID(), nil
}

// SelectEventCount returns the total number of rows in the "events" table.
func SelectEventCount(conn *sqlite.Conn) (int64, error) {
	stmt := conn.Prep(`SELECT count(*) FROM "events";`)
	return sqlitex.ResultInt64(stmt)
}

// SelectEvents returns up to limit events with an id greater than afterID,
// in the order they were received. A limit of 0 returns all of them.
func SelectEvents(conn *sqlite.Conn, afterID int64, limit int) ([]Event, error) {
	stmt := conn.Prep(`SELECT "id", "received", "data" FROM "events"
                WHERE "id" > ? ORDER BY "id" LIMIT ?;`)
	defer stmt.Reset()
	stmt.BindInt64(1, afterID)
	if limit <= 0 {
		limit = -1
	}
	stmt.BindInt64(2, int64(limit))

	var events []Event
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		e := Event{
			ID:       stmt.ColumnInt64(0),
			Received: time.Unix(0, stmt.ColumnInt64(1)),
			Data:     make([]byte, stmt.ColumnLen(2)),
		}
		stmt.ColumnBytes(2, e.Data)
		events = append(events, e)
	}
	return events, nil
}

// bindBytes binds an empty blob instead of NULL for a zero length value.
func bindBytes(stmt *sqlite.Stmt, param int, value []byte) {
	if len(value) == 0 {
		stmt.BindZeroBlob(param, 0)
		return
	}
	stmt.BindBytes(param, value)
}
