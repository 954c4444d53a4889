// Package redisstore keeps workspace blobs in Redis, one string key per blob.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "teamspace:" // teamspace:{workspace}:{blob}

// Store is a blob store backed by a Redis client.
type Store struct {
	client    *redis.Client
	workspace string
}

// New wraps an existing client. Blobs are namespaced under the workspace name.
func New(client *redis.Client, workspace string) *Store {
	return &Store{client: client, workspace: workspace}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr string, db int, workspace string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, workspace), nil
}

func (s *Store) key(name string) string {
	return keyPrefix + s.workspace + ":" + name
}

// Get returns the blob stored under name, or nil if there is none.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %q: %w", name, err)
	}
	return data, nil
}

// Put writes all blobs in one MULTI/EXEC transaction.
func (s *Store) Put(ctx context.Context, blobs map[string][]byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for name, value := range blobs {
			pipe.Set(ctx, s.key(name), value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put blobs: %w", err)
	}
	return nil
}

// Delete removes the given blobs.
func (s *Store) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.key(n)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete blobs: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
