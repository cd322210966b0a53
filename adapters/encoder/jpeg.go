// Package encoder provides the JPEG thumbnail encoder used by the worker
// pipeline.
package encoder

import (
	"bytes"
	"context"
	"image"

	"image/jpeg"

	xdraw "golang.org/x/image/draw"

	apperrors "github.com/Skryldev/photo-archive/errors"
	"github.com/Skryldev/photo-archive/utils"
)

// JPEG resizes and encodes thumbnails.
type JPEG struct {
	Quality int // 1-100
}

// NewJPEG returns a ready JPEG encoder at the given quality.
func NewJPEG(quality int) *JPEG {
	if quality <= 0 {
		quality = 90
	}
	return &JPEG{Quality: quality}
}

// EncodeThumbnail resizes src so its longer edge equals edge pixels — using
// nearest-neighbor resampling and the integer arithmetic spec.md mandates,
// not floating-point scaling, so output is reproducible across machines —
// and returns the resulting JPEG bytes plus the thumbnail's pixel
// dimensions.
func (j *JPEG) EncodeThumbnail(ctx context.Context, src image.Image, edge int) ([]byte, int, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, 0, apperrors.Wrap(apperrors.CategoryPipeline, "jpeg.thumbnail", err)
	}

	b := src.Bounds()
	dstW, dstH := utils.ThumbnailDimensions(b.Dx(), b.Dy(), edge)

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: j.Quality}); err != nil {
		return nil, 0, 0, apperrors.Wrap(apperrors.CategoryPipeline, "jpeg.thumbnail.encode", err)
	}
	return buf.Bytes(), dstW, dstH, nil
}
