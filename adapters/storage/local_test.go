package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Skryldev/photo-archive/adapters/storage"
)

func TestLocal_WriteAndExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img", "pic.jpg")
	store := storage.NewLocal()
	ctx := context.Background()

	if err := store.EnsureDir(ctx, filepath.Dir(path)); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	exists, err := store.Exists(ctx, path)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("file should not exist yet")
	}

	if err := store.Write(ctx, path, []byte("data")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	exists, err = store.Exists(ctx, path)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("file should exist after Write")
	}
}

func TestLocal_SymlinkAndRemove(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "img", "pic.jpg")
	store := storage.NewLocal()
	ctx := context.Background()

	if err := store.EnsureDir(ctx, filepath.Join(dir, "img")); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := store.Write(ctx, target, []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	linkDir := filepath.Join(dir, "link")
	if err := store.EnsureDir(ctx, linkDir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	linkPath := filepath.Join(linkDir, "pic.jpg")
	if err := store.Symlink(ctx, filepath.Join("..", "img", "pic.jpg"), linkPath); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	resolved, err := os.Readlink(linkPath)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if resolved != filepath.Join("..", "img", "pic.jpg") {
		t.Fatalf("symlink target = %q", resolved)
	}

	if err := store.Remove(ctx, linkPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	exists, err := store.Exists(ctx, linkPath)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("link should be gone after Remove")
	}
}

func TestLocal_RemoveIfEmptyDir(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	store := storage.NewLocal()
	ctx := context.Background()

	if err := store.EnsureDir(ctx, empty); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := store.RemoveIfEmptyDir(ctx, empty); err != nil {
		t.Fatalf("RemoveIfEmptyDir: %v", err)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Fatal("empty directory should have been removed")
	}

	nonEmpty := filepath.Join(dir, "full")
	if err := store.EnsureDir(ctx, nonEmpty); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := store.Write(ctx, filepath.Join(nonEmpty, "f.txt"), []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.RemoveIfEmptyDir(ctx, nonEmpty); err != nil {
		t.Fatalf("RemoveIfEmptyDir: %v", err)
	}
	if _, err := os.Stat(nonEmpty); err != nil {
		t.Fatal("non-empty directory must survive RemoveIfEmptyDir")
	}
}
