// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Open connects to the database and verifies the connection.
//
// SQLite connections run in WAL mode with every transaction started as
// BEGIN IMMEDIATE, so a writer takes the database write lock up front and
// waits at most busyTimeout for it. Plain reads never take that lock.
func Open(dbType, url string, busyTimeout time.Duration) (*sql.DB, error) {
	var dsn string
	switch dbType {
	case SQLite:
		dsn = sqliteDSN(url, busyTimeout)
	case Postgres:
		dsn = url
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(dbType, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbType, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dbType, err)
	}

	return conn, nil
}

func sqliteDSN(path string, busyTimeout time.Duration) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_txlock=immediate",
		path, sep, busyTimeout.Milliseconds())
}
