package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const defaultTable = "kv_store"

type postgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore wraps an open Postgres handle. The table is created when
// missing.
func NewPostgresStore(ctx context.Context, db *sql.DB, table string) (Store, error) {
	if table == "" {
		table = defaultTable
	}
	s := &postgresStore{db: db, table: pq.QuoteIdentifier(table)}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.table)); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return s, nil
}

func (s *postgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT value
		FROM %s
		WHERE key = $1
	`, s.table), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// одна upsert-инструкция, читатель не увидит половину записи
func (s *postgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = $2, updated_at = NOW()
	`, s.table), key, value)
	return err
}

func (s *postgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s
		WHERE key = $1
	`, s.table), key)
	return err
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
