package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrKeyNotFound = errors.New("key not found")

// KV is the persistence boundary: JSON documents addressed by string keys.
// PutBatch writes every entry or none of them.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	PutBatch(ctx context.Context, entries map[string][]byte) error
	Close() error
}

type SQLiteKV struct{ db *sqlx.DB }

func NewSQLiteKV(db *sqlx.DB) *SQLiteKV { return &SQLiteKV{db: db} }

func (r *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	err := r.db.GetContext(ctx, &val, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return val, nil
}

func (r *SQLiteKV) PutBatch(ctx context.Context, entries map[string][]byte) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UTC().Format(time.RFC3339)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv(key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, k, entries[k], now); err != nil {
			return fmt.Errorf("kv put %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteKV) Close() error { return r.db.Close() }
