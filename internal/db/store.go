package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// KV is a blob store backed by the kv table of an SQLite file. It holds one
// serialized task collection per key.
type KV struct {
	DB  *sql.DB
	now func() time.Time
}

func NewKV(db *sql.DB) *KV {
	return &KV{DB: db, now: time.Now}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *KV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Health pings the underlying database.
func (s *KV) Health(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
