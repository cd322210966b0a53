// Package decoder provides the JPEG decoder used by the worker pipeline.
// The archive domain only ever ingests and produces JPEG, so a single
// adapter covers decoding without a multi-format registry.
package decoder

import (
	"context"
	"image"
	"image/jpeg"
	"io"

	apperrors "github.com/Skryldev/photo-archive/errors"
)

// JPEG decodes JPEG images using the standard library.
type JPEG struct{}

// NewJPEG returns a ready JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

// Decode reads and fully decodes a JPEG image, returning its pixel data.
func (j *JPEG) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
	}
	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
	}
	return img, nil
}
