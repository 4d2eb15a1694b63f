package db

import (
	"fmt"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

const schema = CreateTableEvents + CreateTableEntries

// migrations[i] upgrades a database from user_version i to i+1. A new
// database is created from schema directly at user_version len(migrations).
var migrations = []func(*sqlite.Conn) error{
	// 0 -> 1
	func(conn *sqlite.Conn) error {
		return sqlitex.ExecScript(conn, `CREATE INDEX IF NOT EXISTS
                        "idx_entries_chain_id_height" ON "entries"("chain_id", "height");`)
	},
}

func applyMigrations(conn *sqlite.Conn) (err error) {
	empty, err := isEmpty(conn)
	if err != nil {
		return
	}
	if empty {
		defer sqlitex.Save(conn)(&err)
		if err = sqlitex.ExecScript(conn, schema); err != nil {
			return
		}
		return updateDBVersion(conn, len(migrations))
	}

	version, err := getDBVersion(conn)
	if err != nil {
		return
	}
	if int(version) == len(migrations) {
		return nil
	}
	if int(version) > len(migrations) {
		return fmt.Errorf("no migration exists for DB version: %v", version)
	}

	defer sqlitex.Save(conn)(&err)
	for _, migration := range migrations[version:] {
		if err = migration(conn); err != nil {
			return
		}
	}
	return updateDBVersion(conn, len(migrations))
}

func isEmpty(conn *sqlite.Conn) (bool, error) {
	var count int
	err := sqlitex.ExecTransient(conn, `SELECT count(*) from "sqlite_master";`,
		func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		})
	return count == 0, err
}

func getDBVersion(conn *sqlite.Conn) (int64, error) {
	var version int64
	err := sqlitex.ExecTransient(conn, `PRAGMA user_version;`,
		func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt64(0)
			return nil
		})
	return version, err
}

func updateDBVersion(conn *sqlite.Conn, version int) error {
	return sqlitex.ExecScript(conn, fmt.Sprintf(`PRAGMA user_version = %v;`,
		version))
}
