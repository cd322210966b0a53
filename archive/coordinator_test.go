package archive_test

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Skryldev/photo-archive/adapters/exif"
	"github.com/Skryldev/photo-archive/adapters/storage"
	"github.com/Skryldev/photo-archive/archive"
	"github.com/Skryldev/photo-archive/config"
	"github.com/Skryldev/photo-archive/core"
)

func writeTestJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 50, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestCoordinator_Sync_StoresAndSkipsOnRerun(t *testing.T) {
	sourceDir := t.TempDir()
	archiveBase := t.TempDir()
	writeTestJPEG(t, filepath.Join(sourceDir, "DCIM", "100CANON", "big.jpg"), 500, 400)
	writeTestJPEG(t, filepath.Join(sourceDir, "DCIM", "100CANON", "small.jpg"), 50, 50)

	cfg := config.Default()
	cfg.WorkerCount = 2
	store := storage.NewLocal()
	coord := archive.NewCoordinator(cfg, archiveBase, nil, store)
	source := core.Source{ID: "vol-test"}
	if err := coord.ImportSource(source); err != nil {
		t.Fatalf("ImportSource: %v", err)
	}

	deps := archive.WorkerDeps{Exif: exif.New(), Store: store}
	ctx := context.Background()

	handle := coord.Sync(ctx, source, sourceDir, deps)
	var stored, ignored int
	for ev := range handle.Events {
		switch ev.Kind {
		case core.EventStored:
			stored++
		case core.EventIgnored:
			ignored++
		}
	}
	handle.Join()

	if stored != 1 {
		t.Fatalf("stored = %d, want 1", stored)
	}
	if ignored != 1 {
		t.Fatalf("ignored = %d, want 1", ignored)
	}

	// Re-run: the large image must now be skipped (idempotency gate).
	handle2 := coord.Sync(ctx, source, sourceDir, deps)
	var skipped int
	for ev := range handle2.Events {
		if ev.Kind == core.EventSkipped {
			skipped++
		}
	}
	handle2.Join()
	if skipped != 1 {
		t.Fatalf("skipped on re-run = %d, want 1", skipped)
	}
}

func TestCoordinator_RequireRegistered_FailsWhenUnknown(t *testing.T) {
	coord := archive.NewCoordinator(config.Default(), t.TempDir(), nil, storage.NewLocal())
	if _, err := coord.RequireRegistered("nope"); err == nil {
		t.Fatal("expected an error for an unregistered source")
	}
}

func TestCoordinator_Sync_HandlesManyImagesConcurrently(t *testing.T) {
	sourceDir := t.TempDir()
	archiveBase := t.TempDir()
	const n = 40
	for i := 0; i < n; i++ {
		writeTestJPEG(t, filepath.Join(sourceDir, "DCIM", "burst", fmtName(i)), 320, 320)
	}

	cfg := config.Default()
	cfg.WorkerCount = 4
	store := storage.NewLocal()
	coord := archive.NewCoordinator(cfg, archiveBase, nil, store)
	source := core.Source{ID: "vol-burst"}
	if err := coord.ImportSource(source); err != nil {
		t.Fatalf("ImportSource: %v", err)
	}

	deps := archive.WorkerDeps{Exif: exif.New(), Store: store}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handle := coord.Sync(ctx, source, sourceDir, deps)
	var stored int
	for ev := range handle.Events {
		if ev.Kind == core.EventStored {
			stored++
		}
	}
	handle.Join()
	if stored != n {
		t.Fatalf("stored = %d, want %d", stored, n)
	}
}

func TestCoordinator_Sync_EmitsScanCounterEventsWhenEnabled(t *testing.T) {
	sourceDir := t.TempDir()
	archiveBase := t.TempDir()
	writeTestJPEG(t, filepath.Join(sourceDir, "DCIM", "100CANON", "a.jpg"), 320, 320)
	writeTestJPEG(t, filepath.Join(sourceDir, "DCIM", "100CANON", "b.jpg"), 320, 320)

	cfg := config.Default()
	cfg.WorkerCount = 2
	cfg.EnableScanCounter = true
	cfg.ScanProgressInterval = time.Millisecond
	store := storage.NewLocal()
	coord := archive.NewCoordinator(cfg, archiveBase, nil, store)
	source := core.Source{ID: "vol-counter"}
	if err := coord.ImportSource(source); err != nil {
		t.Fatalf("ImportSource: %v", err)
	}

	deps := archive.WorkerDeps{Exif: exif.New(), Store: store}
	ctx := context.Background()

	handle := coord.Sync(ctx, source, sourceDir, deps)
	var sawCompleted bool
	for ev := range handle.Events {
		if ev.Kind == core.EventScanCompleted {
			sawCompleted = true
			if ev.Count != 2 {
				t.Fatalf("ScanCompleted count = %d, want 2", ev.Count)
			}
		}
	}
	handle.Join()

	if !sawCompleted {
		t.Fatal("expected a terminal ScanCompleted event when EnableScanCounter is set")
	}
}

func fmtName(i int) string {
	const hex = "0123456789abcdef"
	return "pic-" + string(hex[(i/16)%16]) + string(hex[i%16]) + ".jpg"
}
