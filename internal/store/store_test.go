package store

import (
	"context"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, _, err := OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate, so a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + size)", result.Version)
	}
	if result.Dirty {
		t.Error("schema is dirty")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	db := testDB(t)

	got, err := db.Get(context.Background(), "tasks")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Get(missing) = %q, want nil", got)
	}
}

func TestPutAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, map[string][]byte{
		"tasks":   []byte(`[{"id":"t1"}]`),
		"clients": []byte(`[]`),
	}); err != nil {
		t.Fatal(err)
	}

	got, err := db.Get(ctx, "tasks")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[{"id":"t1"}]` {
		t.Errorf("Get(tasks) = %s", got)
	}

	// Overwrite replaces the whole blob.
	if err := db.Put(ctx, map[string][]byte{"tasks": []byte(`[]`)}); err != nil {
		t.Fatal(err)
	}
	got, err = db.Get(ctx, "tasks")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[]` {
		t.Errorf("Get(tasks) after overwrite = %s, want []", got)
	}
}

func TestListBlobsAndDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, map[string][]byte{
		"notes":    []byte(`[1,2,3]`),
		"meetings": []byte(`[]`),
	}); err != nil {
		t.Fatal(err)
	}

	infos, err := db.ListBlobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d blobs, want 2", len(infos))
	}
	if infos[0].Key != "meetings" || infos[1].Key != "notes" {
		t.Errorf("keys = %s, %s; want meetings, notes", infos[0].Key, infos[1].Key)
	}
	if infos[1].Size != 7 {
		t.Errorf("notes size = %d, want 7", infos[1].Size)
	}

	if err := db.Delete(ctx, "notes", "absent"); err != nil {
		t.Fatal(err)
	}
	got, err := db.Get(ctx, "notes")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Get(notes) after delete = %s, want nil", got)
	}
}
