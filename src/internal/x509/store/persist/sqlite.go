// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package persist

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// SQLite persists records in a SQLite database file.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("persist: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: connect to database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("persist: execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("persist: apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("persist: set user_version: %w", err)
	}
	return nil
}

// Load returns every record in sequence order.
func (s *SQLite) Load(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT seq, digest, encoded FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("persist: query records: %w", err)
	}

	var (
		records []Record
		bySeq   = make(map[int64]int)
	)
	for rows.Next() {
		var (
			seq     int64
			dgText  string
			encoded []byte
		)
		if err := rows.Scan(&seq, &dgText, &encoded); err != nil {
			rows.Close()
			return nil, fmt.Errorf("persist: scan record: %w", err)
		}
		dg, err := digest.Parse(dgText)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("persist: record %d: %w", seq, err)
		}
		if dg != digest.FromBytes(encoded) {
			rows.Close()
			return nil, fmt.Errorf("persist: record %d: content does not match digest %s", seq, dg)
		}
		bySeq[seq] = len(records)
		records = append(records, Record{Encoded: encoded})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("persist: iterate records: %w", err)
	}
	rows.Close()

	props, err := s.db.QueryContext(ctx, `SELECT record_seq, prop_id, value FROM properties ORDER BY record_seq, ord`)
	if err != nil {
		return nil, fmt.Errorf("persist: query properties: %w", err)
	}
	defer props.Close()
	for props.Next() {
		var (
			seq   int64
			id    uint32
			value []byte
		)
		if err := props.Scan(&seq, &id, &value); err != nil {
			return nil, fmt.Errorf("persist: scan property: %w", err)
		}
		i, ok := bySeq[seq]
		if !ok {
			continue
		}
		records[i].Properties = append(records[i].Properties, Property{ID: id, Value: value})
	}
	if err := props.Err(); err != nil {
		return nil, fmt.Errorf("persist: iterate properties: %w", err)
	}
	return records, nil
}

// Save replaces the database content with records in one transaction.
func (s *SQLite) Save(ctx context.Context, records []Record) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("persist: clear records: %w", err)
	}

	insRecord, err := tx.PrepareContext(ctx, `INSERT INTO records (seq, digest, encoded) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("persist: prepare record insert: %w", err)
	}
	defer insRecord.Close()

	insProp, err := tx.PrepareContext(ctx, `INSERT INTO properties (record_seq, ord, prop_id, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("persist: prepare property insert: %w", err)
	}
	defer insProp.Close()

	for i, rec := range records {
		if _, err = insRecord.ExecContext(ctx, i, rec.Digest().String(), rec.Encoded); err != nil {
			return fmt.Errorf("persist: insert record %d: %w", i, err)
		}
		for j, p := range rec.Properties {
			value := p.Value
			if value == nil {
				value = []byte{}
			}
			if _, err = insProp.ExecContext(ctx, i, j, p.ID, value); err != nil {
				return fmt.Errorf("persist: insert property %d of record %d: %w", p.ID, i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
