// Package exif wraps github.com/rwcarlsen/goexif to satisfy the pipeline's
// ExifExtractor contract: read a container, return its raw bytes and a
// best-effort naive timestamp from DateTimeOriginal / DateTime /
// DateTimeDigitized, in that order.
package exif

import (
	"bytes"
	"context"
	"io"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"

	"github.com/Skryldev/photo-archive/core"
	"github.com/Skryldev/photo-archive/utils"
)

// exifDateLayout is the form EXIF DateTime* tags are stored in,
// "YYYY:MM:DD HH:MM:SS".
const exifDateLayout = "2006:01:02 15:04:05"

// dateLayout is the dash-separated rendering, "YYYY-MM-DD HH:MM:SS", also
// accepted.
const dateLayout = "2006-01-02 15:04:05"

// Extractor implements core.ExifExtractor using goexif.
type Extractor struct{}

// New returns a ready Extractor.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Extract(ctx context.Context, r io.Reader) ([]byte, *core.NaiveTimestamp, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return nil, nil, err
	}
	full := buf.Bytes()

	x, err := goexif.Decode(bytes.NewReader(full))
	if err != nil {
		utils.ReleaseBuffer(buf)
		// No EXIF container, or it's unparseable: non-fatal, no timestamp.
		return nil, nil, nil
	}

	seg, ok := exifSegment(full)
	if !ok {
		// Decode succeeded against a bare TIFF/EXIF stream with no JPEG
		// wrapper, so the whole input already is the container.
		seg = full
	}
	raw := utils.CloneBytes(seg)
	utils.ReleaseBuffer(buf)

	ts := firstTimestamp(x, goexif.DateTimeOriginal, goexif.DateTime, goexif.DateTimeDigitized)
	return raw, ts, nil
}

// exifSegment walks a JPEG's marker segments looking for the APP1 segment
// carrying the "Exif\x00\x00" signature and returns just that segment's
// payload — the EXIF/TIFF container, not the surrounding image data.
func exifSegment(data []byte) ([]byte, bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, false
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return nil, false
		}
		marker := data[pos+1]
		pos += 2
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			continue
		}
		if marker == 0xD9 || marker == 0xDA {
			// EOI, or start of entropy-coded scan data: no more markers.
			return nil, false
		}
		if pos+2 > len(data) {
			return nil, false
		}
		segLen := int(data[pos])<<8 | int(data[pos+1])
		end := pos + segLen
		if segLen < 2 || end > len(data) {
			return nil, false
		}
		payload := data[pos+2 : end]
		if marker == 0xE1 && len(payload) >= 6 && string(payload[:6]) == "Exif\x00\x00" {
			return payload, true
		}
		pos = end
	}
	return nil, false
}

func firstTimestamp(x *goexif.Exif, tags ...goexif.FieldName) *core.NaiveTimestamp {
	for _, tag := range tags {
		field, err := x.Get(tag)
		if err != nil {
			continue
		}
		s, err := field.StringVal()
		if err != nil {
			continue
		}
		t, err := time.Parse(exifDateLayout, s)
		if err != nil {
			t, err = time.Parse(dateLayout, s)
		}
		if err != nil {
			continue
		}
		return &core.NaiveTimestamp{
			Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
			Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
		}
	}
	return nil
}
