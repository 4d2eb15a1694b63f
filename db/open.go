// MIT License
//
// Copyright 2018 Canonical Ledgers, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

// Package db stores LiveFeed events and chain entries in a single SQLite
// database file.
package db

import (
	"context"
	"fmt"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

// ApplicationID is written to the SQLite application_id header of every
// database created by Open.
const ApplicationID int32 = 0x0FEED

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

const baseFlags = sqlite.SQLITE_OPEN_READWRITE |
	sqlite.SQLITE_OPEN_CREATE |
	sqlite.SQLITE_OPEN_URI |
	sqlite.SQLITE_OPEN_NOMUTEX

// Open the database at path, creating and initializing it if needed. Pending
// operations on the returned Conn are interrupted once ctx is done.
//
// A Conn must not be used concurrently.
func Open(ctx context.Context, path string) (conn *sqlite.Conn, err error) {
	flags := baseFlags
	if path != Memory {
		flags |= sqlite.SQLITE_OPEN_WAL
	}
	if conn, err = sqlite.OpenConn(path, flags); err != nil {
		return nil, fmt.Errorf("sqlite.OpenConn(%q, %x): %w", path, flags, err)
	}
	defer func() {
		if err != nil {
			conn.Close()
			conn = nil
		}
	}()

	conn.SetInterrupt(ctx.Done())

	if err = checkOrSetApplicationID(conn); err != nil {
		return
	}
	if err = applyMigrations(conn); err != nil {
		return
	}
	if err = sqlitex.ExecScript(conn, `PRAGMA foreign_keys = ON;`); err != nil {
		return
	}
	return conn, nil
}

// Close conn after clearing its interrupt, so that a cancelled Context does
// not prevent a clean shutdown.
func Close(conn *sqlite.Conn) error {
	conn.SetInterrupt(nil)
	if err := conn.Close(); err != nil {
		return fmt.Errorf("conn.Close(): %w", err)
	}
	return nil
}

func checkOrSetApplicationID(conn *sqlite.Conn) error {
	var appID int32
	if err := sqlitex.ExecTransient(conn, `PRAGMA "main"."application_id";`,
		func(stmt *sqlite.Stmt) error {
			appID = stmt.ColumnInt32(0)
			return nil
		}); err != nil {
		return err
	}
	switch appID {
	case 0: // ApplicationID not set
		return sqlitex.ExecTransient(conn,
			fmt.Sprintf(`PRAGMA "main"."application_id" = %v;`,
				ApplicationID), nil)
	case ApplicationID:
		return nil
	}
	return fmt.Errorf("invalid database: application_id: %#x", appID)
}

// OpenPool opens a pool of size read only connections to the database at
// path, which must have already been created by Open.
func OpenPool(path string, size int) (*sqlitex.Pool, error) {
	if path == Memory {
		return nil, fmt.Errorf("an in-memory database cannot be pooled")
	}
	flags := sqlite.SQLITE_OPEN_READONLY |
		sqlite.SQLITE_OPEN_URI |
		sqlite.SQLITE_OPEN_NOMUTEX |
		sqlite.SQLITE_OPEN_WAL
	pool, err := sqlitex.Open(path, flags, size)
	if err != nil {
		return nil, fmt.Errorf("sqlitex.Open(%q, %x, %v): %w",
			path, flags, size, err)
	}
	return pool, nil
}
