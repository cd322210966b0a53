package config

import (
	"errors"
	"time"
)

// Config is the top-level configuration struct. All fields have safe
// defaults so callers can start with Default() and override only what
// they need.
type Config struct {
	// Worker pool controls (§4.6: 4 workers, channel capacity 100).
	WorkerCount int // default 4
	PathQueue   int // scanner → workers channel capacity; default 100
	RecordQueue int // workers → record store channel capacity; default 100

	// Retry applied to transient thumbnail-store failures only; per-image
	// decode/EXIF errors are never retried (spec.md §7: per-image errors
	// are terminal for that image, not the worker).
	MaxRetries int
	RetryDelay time.Duration

	// Thumbnailing (§4.5 step 9).
	ThumbnailEdge int // longer-edge pixel size; default 300
	MinEdge       int // minimum accepted width/height; default 300

	// FastRejectUndersized enables the optional govips header-only
	// dimension probe (§4.5, SPEC_FULL.md §11) to short-circuit full pixel
	// decode of images that will be rejected as too small. Off by default
	// since it requires a CGO build of libvips.
	FastRejectUndersized bool

	// JPEG encode quality used for generated thumbnails.
	ThumbnailQuality int // 1-100; default 90

	// Streaming / memory limits applied when reading a source file.
	MaxImageBytes int64 // 0 = no limit
	ChunkSize     int   // default 32 KiB; validated only — the worker pipeline reads in fixed 32 KiB chunks and does not read this field

	// Scan progress cadence (§4.4: at most once per second).
	ScanProgressInterval time.Duration

	// EnableScanCounter spawns the optional counting pass (§4.4) that walks
	// the source tree independently of the scanner to emit ScanProgress /
	// ScanCompleted events. Off by default: it doubles the directory walk
	// cost of a sync run for progress reporting alone.
	EnableScanCounter bool

	// Logging.
	LogLevel string // "debug", "info", "warn", "error"
}

// Default returns a Config populated with the reference design's values.
func Default() Config {
	return Config{
		WorkerCount:          4,
		PathQueue:            100,
		RecordQueue:          100,
		MaxRetries:           2,
		RetryDelay:           200 * time.Millisecond,
		ThumbnailEdge:        300,
		MinEdge:              300,
		FastRejectUndersized: false,
		ThumbnailQuality:     90,
		ChunkSize:            32 * 1024,
		ScanProgressInterval: time.Second,
		LogLevel:             "info",
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.WorkerCount <= 0 {
		return errors.New("config: WorkerCount must be positive")
	}
	if c.PathQueue <= 0 || c.RecordQueue <= 0 {
		return errors.New("config: PathQueue and RecordQueue must be positive")
	}
	if c.ThumbnailEdge <= 0 {
		return errors.New("config: ThumbnailEdge must be positive")
	}
	if c.MinEdge <= 0 {
		return errors.New("config: MinEdge must be positive")
	}
	if c.ThumbnailQuality < 1 || c.ThumbnailQuality > 100 {
		return errors.New("config: ThumbnailQuality must be between 1 and 100")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	return nil
}
