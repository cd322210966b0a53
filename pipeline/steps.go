// Package pipeline provides the archival worker's Step implementations,
// decomposing spec.md §4.5's eleven-step sequence into individually
// testable units wired together by archive/worker.go.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/Skryldev/photo-archive/adapters/decoder"
	"github.com/Skryldev/photo-archive/adapters/encoder"
	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
	"github.com/Skryldev/photo-archive/layout"
	"github.com/Skryldev/photo-archive/utils"
)

// EventEmitter accepts a completed Event — in practice the producer side
// of the coordinator's unbounded raw-event channel.
type EventEmitter func(core.Event)

// ── 1. Read file ──────────────────────────────────────────────────────────────

// ReadFileStep opens the source image and reads it fully into memory.
// Failure to open or read the file is the only Errored outcome in the
// read/EXIF stage (spec.md §4.5 step 1).
type ReadFileStep struct {
	MaxBytes int64 // 0 = unlimited
}

func (s *ReadFileStep) Name() string { return "read_file" }

func (s *ReadFileStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryScan, s.Name(), err)
	}

	f, err := os.Open(item.SourcePath)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryScan, s.Name(), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryScan, s.Name(), err)
	}
	item.FileSize = info.Size()
	item.FileModTS = info.ModTime()

	lr := &utils.LimitedReader{R: f, Max: s.MaxBytes}
	buf, err := utils.DrainReader(ctx, lr, 32*1024)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryScan, s.Name(), err)
	}
	item.RawBytes = utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)
	return nil
}

// ── 2. Extract EXIF ───────────────────────────────────────────────────────────

// ExtractEXIFStep attempts to read the raw EXIF container and a naive
// timestamp. Per spec.md §4.5 step 1, a parse failure is never fatal — the
// item simply proceeds with no EXIF and no timestamp.
type ExtractEXIFStep struct {
	Extractor core.ExifExtractor
}

func (s *ExtractEXIFStep) Name() string { return "extract_exif" }

func (s *ExtractEXIFStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	raw, ts, err := s.Extractor.Extract(ctx, bytes.NewReader(item.RawBytes))
	if err != nil {
		// Non-fatal: treated identically to "no EXIF present".
		return nil
	}
	item.RawEXIF = raw
	item.NaivePhotoTS = ts
	return nil
}

// ── 3. Parse timestamp ────────────────────────────────────────────────────────

// ParseTimestampStep converts the naive EXIF timestamp, if any, into the
// wall-clock time.Time carried on the record. This never performs timezone
// conversion (spec.md §9): the record lands in whatever year/day the
// camera's clock said.
type ParseTimestampStep struct{}

func (s *ParseTimestampStep) Name() string { return "parse_timestamp" }

func (s *ParseTimestampStep) Execute(_ context.Context, item *core.ArchiveItem) error {
	if item.NaivePhotoTS == nil {
		return nil
	}
	t := item.NaivePhotoTS.Time()
	item.PhotoTS = &t
	return nil
}

// ── 4. Build paths ────────────────────────────────────────────────────────────

// BuildPathsStep derives the archive paths (C1) and ensures img_dir exists.
type BuildPathsStep struct {
	ArchiveBase string
	Store       core.ThumbnailStore
}

func (s *BuildPathsStep) Name() string { return "build_paths" }

func (s *BuildPathsStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	paths, err := layout.BuildPaths(s.ArchiveBase, item.PartitionCRC, item.SourceRelative, item.PhotoTS)
	if err != nil {
		return err
	}
	item.Paths = paths
	return s.Store.EnsureDir(ctx, paths.ImgDir)
}

// ── 5. Idempotency gate ───────────────────────────────────────────────────────

// IdempotencyGateStep stops the pipeline with ErrSkip if link_file already
// exists (spec.md §4.5 step 4).
type IdempotencyGateStep struct {
	Store core.ThumbnailStore
	Emit  EventEmitter
}

func (s *IdempotencyGateStep) Name() string { return "idempotency_gate" }

func (s *IdempotencyGateStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	exists, err := s.Store.Exists(ctx, item.Paths.LinkFile)
	if err != nil {
		return err
	}
	if exists {
		if s.Emit != nil {
			s.Emit(core.SkippedEvent(item.SourcePath, item.Paths.LinkFile))
		}
		return ErrSkip
	}
	return nil
}

// ── 6. Ensure link dir ────────────────────────────────────────────────────────

// EnsureLinkDirStep creates link_dir (spec.md §4.5 step 5).
type EnsureLinkDirStep struct {
	Store core.ThumbnailStore
}

func (s *EnsureLinkDirStep) Name() string { return "ensure_link_dir" }

func (s *EnsureLinkDirStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	return s.Store.EnsureDir(ctx, item.Paths.LinkDir)
}

// ── 7. Decode ─────────────────────────────────────────────────────────────────

// DecodeStep fully decodes the source image's pixel data.
type DecodeStep struct {
	Decoder *decoder.JPEG
}

func (s *DecodeStep) Name() string { return "decode" }

func (s *DecodeStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	img, err := s.Decoder.Decode(ctx, bytes.NewReader(item.RawBytes))
	if err != nil {
		return err
	}
	b := img.Bounds()
	item.Decoded = img
	item.Width = b.Dx()
	item.Height = b.Dy()
	return nil
}

// ── 8. Size gate ──────────────────────────────────────────────────────────────

// SizeGateStep stops the pipeline with ErrIgnore if the decoded image is
// smaller than MinEdge on either axis (spec.md §4.5 step 7).
type SizeGateStep struct {
	MinEdge int
	Emit    EventEmitter
}

func (s *SizeGateStep) Name() string { return "size_gate" }

func (s *SizeGateStep) Execute(_ context.Context, item *core.ArchiveItem) error {
	if item.Width >= s.MinEdge && item.Height >= s.MinEdge {
		return nil
	}
	if s.Emit != nil {
		cause := fmt.Sprintf("Image is too small %dx%d", item.Width, item.Height)
		s.Emit(core.IgnoredEvent(item.SourcePath, cause))
	}
	return ErrIgnore
}

// ── 9. Digest ─────────────────────────────────────────────────────────────────

// DigestStep computes the CRC-32C digest of the decoded pixel bytes and
// derives thumb_file (spec.md §4.5 step 8).
type DigestStep struct{}

func (s *DigestStep) Name() string { return "digest" }

func (s *DigestStep) Execute(_ context.Context, item *core.ArchiveItem) error {
	item.Digest = utils.CRC32C(pixelBytes(item.Decoded))
	basename := layout.BuildFilename(item.PhotoTS, item.FileModTS, item.Digest)
	item.ThumbFile = filepath.Join(item.Paths.ImgDir, basename)
	return nil
}

// pixelBytes extracts the raw sample bytes backing a decoded image in the
// most direct representation the standard decoder produced, without
// re-encoding it — so the digest reflects decoded pixels, not a
// re-serialization of them.
func pixelBytes(img image.Image) []byte {
	switch px := img.(type) {
	case *image.YCbCr:
		buf := make([]byte, 0, len(px.Y)+len(px.Cb)+len(px.Cr))
		buf = append(buf, px.Y...)
		buf = append(buf, px.Cb...)
		buf = append(buf, px.Cr...)
		return buf
	case *image.RGBA:
		return px.Pix
	case *image.NRGBA:
		return px.Pix
	case *image.Gray:
		return px.Pix
	case *image.CMYK:
		return px.Pix
	default:
		b := img.Bounds()
		buf := make([]byte, 0, b.Dx()*b.Dy()*4)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, a := img.At(x, y).RGBA()
				buf = append(buf, byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8))
			}
		}
		return buf
	}
}

// ── Optional fast-reject probe ────────────────────────────────────────────────

// ProbeSizeGateStep is the FastRejectUndersized optimization (SPEC_FULL.md
// §11): when a DimensionProber is wired, it short-circuits an image that
// will fail the size gate anyway, skipping the full pixel decode. It must
// never change the externally observed event for an image — only whether a
// full decode happened to produce it. A probe error or an image that
// passes is silently let through to the real decode + size gate.
type ProbeSizeGateStep struct {
	Prober  core.DimensionProber
	MinEdge int
	Emit    EventEmitter
}

func (s *ProbeSizeGateStep) Name() string { return "probe_size_gate" }

func (s *ProbeSizeGateStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	width, height, err := s.Prober.ProbeDimensions(ctx, bytes.NewReader(item.RawBytes))
	if err != nil {
		return nil
	}
	if width >= s.MinEdge && height >= s.MinEdge {
		return nil
	}
	if s.Emit != nil {
		cause := fmt.Sprintf("Image is too small %dx%d", width, height)
		s.Emit(core.IgnoredEvent(item.SourcePath, cause))
	}
	return ErrIgnore
}

// ── 10. Thumbnail ─────────────────────────────────────────────────────────────

// ThumbnailStep resizes and writes the thumbnail if one doesn't already
// exist at thumb_file (spec.md §4.5 step 9).
type ThumbnailStep struct {
	Encoder *encoder.JPEG
	Store   core.ThumbnailStore
	Edge    int
}

func (s *ThumbnailStep) Name() string { return "thumbnail" }

func (s *ThumbnailStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	exists, err := s.Store.Exists(ctx, item.ThumbFile)
	if err != nil {
		return err
	}
	if exists {
		item.Generated = false
		return nil
	}
	data, _, _, err := s.Encoder.EncodeThumbnail(ctx, item.Decoded, s.Edge)
	if err != nil {
		return err
	}
	if err := s.Store.Write(ctx, item.ThumbFile, data); err != nil {
		return err
	}
	item.Generated = true
	return nil
}

// ── 11. Link ──────────────────────────────────────────────────────────────────

// LinkStep creates the origin-preserving symlink and builds the Photo
// Record for the record channel (spec.md §4.5 step 10).
type LinkStep struct {
	Store core.ThumbnailStore
}

func (s *LinkStep) Name() string { return "link" }

func (s *LinkStep) Execute(ctx context.Context, item *core.ArchiveItem) error {
	exists, err := s.Store.Exists(ctx, item.Paths.LinkFile)
	if err != nil {
		return err
	}
	if !exists {
		target := layout.LinkTarget(filepath.Base(item.ThumbFile))
		if err := s.Store.Symlink(ctx, target, item.Paths.LinkFile); err != nil {
			return err
		}
	}

	fileTS := item.FileModTS.UTC().Unix()
	if fileTS < 0 {
		return apperrors.New(apperrors.CategoryRecordStore, s.Name(), apperrors.ErrFileTimeBeforeEpoch)
	}

	item.Record = &core.PhotoRecord{
		PhotoTS:    item.PhotoTS,
		FileTS:     uint64(fileTS),
		SourceID:   item.SourceID,
		SourcePath: item.SourceRelative,
		EXIF:       item.RawEXIF,
		Size:       uint64(item.FileSize),
		Width:      uint(item.Width),
		Height:     uint(item.Height),
		Digest:     item.Digest,
	}
	return nil
}

// ── 12. Stored event ──────────────────────────────────────────────────────────

// StoredEventStep emits the terminal Stored event (spec.md §4.5 step 11).
type StoredEventStep struct {
	Emit EventEmitter
}

func (s *StoredEventStep) Name() string { return "stored_event" }

func (s *StoredEventStep) Execute(_ context.Context, item *core.ArchiveItem) error {
	if s.Emit != nil {
		s.Emit(core.StoredEvent(item.SourcePath, item.ThumbFile, item.Generated, item.PhotoTS == nil))
	}
	return nil
}
