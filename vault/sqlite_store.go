// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/backscroll/lib/sqlitepool"
)

// sqliteTimeout bounds how long a store operation waits for a
// connection. Store methods carry no context of their own.
const sqliteTimeout = 10 * time.Second

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_record (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	record      BLOB NOT NULL,
	fingerprint TEXT NOT NULL,
	sealed_at   INTEGER NOT NULL
);
`

// SQLiteStore keeps the record as the single row of a SQLite table.
// Writes commit with synchronous=FULL and deleted pages are zeroed
// (see lib/sqlitepool).
type SQLiteStore struct {
	pool *sqlitepool.Pool
	now  func() time.Time
}

// OpenSQLiteStore opens or creates the database at path. The caller
// must Close the store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path: path,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
		},
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{pool: pool, now: time.Now}, nil
}

func (s *SQLiteStore) take() (*sqlite.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()
	return s.pool.Take(ctx)
}

// Load implements Store.
func (s *SQLiteStore) Load() (Record, error) {
	conn, err := s.take()
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var record Record
	err = sqlitex.Execute(conn, "SELECT record FROM session_record WHERE id = 1", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record = make(Record, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, record)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reading sealed record from %s: %w", s.pool.Path(), err)
	}
	if len(record) == 0 {
		return nil, ErrNoRecord
	}
	return record, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(record Record) (err error) {
	conn, err := s.take()
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("beginning record transaction: %w", err)
	}
	defer endFn(&err)

	err = sqlitex.Execute(conn, `
		INSERT INTO session_record (id, record, fingerprint, sealed_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			record = excluded.record,
			fingerprint = excluded.fingerprint,
			sealed_at = excluded.sealed_at`,
		&sqlitex.ExecOptions{
			Args: []any{[]byte(record), record.Fingerprint(), s.now().UnixMilli()},
		})
	if err != nil {
		return fmt.Errorf("writing sealed record to %s: %w", s.pool.Path(), err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete() error {
	conn, err := s.take()
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, "DELETE FROM session_record WHERE id = 1", nil); err != nil {
		return fmt.Errorf("removing sealed record: %w", err)
	}
	return nil
}

// SealedAt returns when the current record was saved, or ErrNoRecord.
func (s *SQLiteStore) SealedAt() (time.Time, error) {
	conn, err := s.take()
	if err != nil {
		return time.Time{}, err
	}
	defer s.pool.Put(conn)

	var sealedAt int64
	found := false
	err = sqlitex.Execute(conn, "SELECT sealed_at FROM session_record WHERE id = 1", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			sealedAt = stmt.ColumnInt64(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("reading record timestamp: %w", err)
	}
	if !found {
		return time.Time{}, ErrNoRecord
	}
	return time.UnixMilli(sealedAt).UTC(), nil
}

// Path implements Store.
func (s *SQLiteStore) Path() string { return s.pool.Path() }

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.pool.Close() }
