package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, map[string][]byte{
		"tasks":       []byte(`[{"id":"t1"}]`),
		"teamMembers": []byte(`[]`),
	}))

	got, err := s.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"t1"}]`, string(got))

	// One file per blob, no temp files left behind.
	_, err = os.Stat(filepath.Join(dir, "teamMembers.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "tasks.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_GetMissing(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Get(context.Background(), "meetings")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Delete(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, map[string][]byte{"notes": []byte(`[]`)}))
	require.NoError(t, s.Delete(ctx, "notes", "never-written"))

	got, err := s.Get(ctx, "notes")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SharedDirectory(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	b, err := Open(dir)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, map[string][]byte{"clients": []byte(`["c1"]`)}))
	got, err := b.Get(ctx, "clients")
	require.NoError(t, err)
	assert.Equal(t, `["c1"]`, string(got))
}
