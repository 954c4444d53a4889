package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Get returns the blob stored under key, or nil if there is none.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %q: %w", key, err)
	}
	return value, nil
}

// Put writes all blobs in a single transaction.
func (db *DB) Put(ctx context.Context, blobs map[string][]byte) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, key := range sortedKeys(blobs) {
		value := blobs[key]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO blobs (key, value, size, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				size = excluded.size,
				updated_at = excluded.updated_at`,
			key, value, len(value), now); err != nil {
			return fmt.Errorf("put blob %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// Delete removes the given keys. Missing keys are ignored.
func (db *DB) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete blob %q: %w", key, err)
		}
	}
	return nil
}

// BlobInfo describes a stored blob without its contents.
type BlobInfo struct {
	Key       string
	Size      int64
	UpdatedAt int64
}

// ListBlobs returns metadata for every stored blob ordered by key.
func (db *DB) ListBlobs(ctx context.Context) ([]BlobInfo, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, size, updated_at FROM blobs ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var infos []BlobInfo
	for rows.Next() {
		var b BlobInfo
		if err := rows.Scan(&b.Key, &b.Size, &b.UpdatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, b)
	}
	return infos, rows.Err()
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
