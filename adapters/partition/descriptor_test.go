package partition_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Skryldev/photo-archive/adapters/partition"
)

func TestReadDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, partition.DescriptorFileName)
	if err := os.WriteFile(path, []byte(`source_id = "vol-001"`+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	desc, err := partition.ReadDescriptor(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadDescriptor: %v", err)
	}
	if desc.SourceID != "vol-001" {
		t.Fatalf("SourceID = %q, want vol-001", desc.SourceID)
	}
}

func TestReadDescriptor_MissingFile(t *testing.T) {
	_, err := partition.ReadDescriptor(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected an error for a missing descriptor file")
	}
}
