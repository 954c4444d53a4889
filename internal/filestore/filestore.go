// Package filestore keeps workspace blobs as JSON files in a directory. Each
// write goes to a temp file that is renamed into place, under an exclusive
// file lock shared by every process using the directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockRetryDelay = 50 * time.Millisecond
	lockTimeout    = 3 * time.Second
)

// Store is a directory of blob files.
type Store struct {
	dir  string
	mu   sync.Mutex // flock does not exclude goroutines of one process
	lock *flock.Flock
}

// Open prepares dir for use, creating it if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, "blobs.lock")),
	}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire blob lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire blob lock: timed out")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

// Get returns the blob stored under name, or nil if there is none.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.withLock(ctx, func() error {
		b, err := os.ReadFile(s.path(name))
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read blob %q: %w", name, err)
		}
		data = b
		return nil
	})
	return data, err
}

// Put writes every blob atomically. Blobs are written one after another, so a
// crash can leave some blobs newer than others but never a torn file.
func (s *Store) Put(ctx context.Context, blobs map[string][]byte) error {
	return s.withLock(ctx, func() error {
		for name, value := range blobs {
			if err := s.writeAtomic(s.path(name), value); err != nil {
				return fmt.Errorf("write blob %q: %w", name, err)
			}
		}
		return nil
	})
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the given blobs. Missing blobs are ignored.
func (s *Store) Delete(ctx context.Context, names ...string) error {
	return s.withLock(ctx, func() error {
		for _, name := range names {
			if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("delete blob %q: %w", name, err)
			}
		}
		return nil
	})
}

// Close releases the lock file handle.
func (s *Store) Close() error {
	return s.lock.Close()
}
