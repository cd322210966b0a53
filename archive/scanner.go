package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Skryldev/photo-archive/core"
)

// Scan performs a depth-first walk of root, sending the absolute path of
// every regular file whose lowercased extension is jpg/jpeg onto paths.
// Symlinked directories are skipped (cycle/escape avoidance). Directory
// read errors are logged via logger and otherwise non-fatal. Scan closes
// paths before returning.
func Scan(ctx context.Context, logger core.Logger, root string, paths chan<- string) {
	defer close(paths)
	scanDir(ctx, logger, root, paths)
}

func scanDir(ctx context.Context, logger core.Logger, dir string, paths chan<- string) {
	if ctx.Err() != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if logger != nil {
			logger.Warn("scan.read_dir", "dir", dir, "cause", err.Error())
		}
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		full := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			if logger != nil {
				logger.Warn("scan.stat", "path", full, "cause", err.Error())
			}
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		if e.IsDir() {
			scanDir(ctx, logger, full, paths)
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		if ext != "jpg" && ext != "jpeg" {
			continue
		}
		select {
		case paths <- full:
		case <-ctx.Done():
			return
		}
	}
}

// CountProgress performs the same traversal purely to count images,
// emitting ScanProgress at most once per interval (one second when interval
// is not positive) and exactly one terminal ScanCompleted.
func CountProgress(ctx context.Context, root string, interval time.Duration, emit func(core.Event)) {
	if interval <= 0 {
		interval = time.Second
	}
	start := time.Now()
	count := 0
	lastEmit := time.Time{}
	countDir(ctx, root, &count, interval, &lastEmit, emit)
	emit(core.ScanCompleted(count, time.Since(start)))
}

func countDir(ctx context.Context, dir string, count *int, interval time.Duration, lastEmit *time.Time, emit func(core.Event)) {
	if ctx.Err() != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		if e.IsDir() {
			countDir(ctx, full, count, interval, lastEmit, emit)
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		if ext != "jpg" && ext != "jpeg" {
			continue
		}
		*count++
		if now := time.Now(); now.Sub(*lastEmit) >= interval {
			emit(core.ScanProgress(*count))
			*lastEmit = now
		}
	}
}
