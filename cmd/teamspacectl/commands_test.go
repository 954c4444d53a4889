package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadItem(t *testing.T) {
	item, err := readItem(`{"title":"Write changelog","priority":"high"}`)
	require.NoError(t, err)
	assert.Equal(t, "Write changelog", item["title"])

	path := filepath.Join(t.TempDir(), "task.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"task-1","status":"completed"}`), 0600))
	item, err = readItem("@" + path)
	require.NoError(t, err)
	assert.Equal(t, "task-1", item["id"])

	_, err = readItem(`not json`)
	assert.Error(t, err)
	_, err = readItem("@" + filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		item map[string]any
		want string
	}{
		{"title wins", map[string]any{"title": "Standup", "name": "x"}, "Standup"},
		{"name", map[string]any{"name": "Acme"}, "Acme"},
		{"content", map[string]any{"content": "hi"}, "hi"},
		{"direct conversation", map[string]any{"participants": []any{"a", "b"}}, "2 participants"},
		{"nothing", map[string]any{"id": "x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, label(tt.item))
		})
	}
}

func TestCollectionNamesSorted(t *testing.T) {
	names := collectionNames()
	assert.Len(t, names, 7)
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "teamMembers")
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"status", "list", "upsert", "delete", "send", "read", "join", "cancel", "reset", "watch"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("workspace"))
	assert.NotNil(t, root.PersistentFlags().Lookup("json"))
}

func TestResetRequiresForce(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"reset"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}
