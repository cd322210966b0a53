// Package vips provides an optional header-only dimension probe backed by
// libvips. It exists purely as a pre-decode optimization: when enabled
// (config.FastRejectUndersized), the worker pipeline can short-circuit the
// full pixel decode of an image that will be rejected by the size gate
// anyway. With or without it, externally observable behavior is identical —
// callers that don't want a CGO/libvips build dependency simply never
// construct a Prober.
package vips

import (
	"context"
	"io"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	apperrors "github.com/Skryldev/photo-archive/errors"
	"github.com/Skryldev/photo-archive/utils"
)

// ProberConfig configures the libvips runtime.
type ProberConfig struct {
	MaxCacheSize int
	MaxWorkers   int
	ReportLeaks  bool
}

// Prober implements core.DimensionProber using libvips' header-only load
// path, which never allocates the full decoded bitmap.
type Prober struct{}

// NewProber initializes libvips and returns a ready Prober. Shutdown must
// be called once at process exit.
func NewProber(cfg ProberConfig) *Prober {
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: workers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
	})
	return &Prober{}
}

// Shutdown releases all libvips resources.
func (p *Prober) Shutdown() { govips.Shutdown() }

// ProbeDimensions reads just enough of r to report the image's pixel
// dimensions without decoding its pixel data.
func (p *Prober) ProbeDimensions(ctx context.Context, r io.Reader) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return 0, 0, apperrors.Wrap(apperrors.CategoryDecode, "vips.probe.drain", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	// libvips decodes lazily: constructing the ImageRef reads only the
	// header until pixel data is actually accessed, which never happens
	// here.
	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return 0, 0, apperrors.Wrap(apperrors.CategoryDecode, "vips.probe", err)
	}
	defer ref.Close()
	return ref.Width(), ref.Height(), nil
}
