package utils

import (
	"bytes"
	"hash/crc32"
	"strings"
)

// castagnoliTable is the CRC-32C (Castagnoli) lookup table, as required by
// spec.md §6: polynomial 0x1EDC6F41, init 0xFFFFFFFF, reflected, xorout
// 0xFFFFFFFF — exactly what the standard library's crc32.Castagnoli table
// implements, so no third-party crate is warranted here (see DESIGN.md).
var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the CRC-32C (Castagnoli) checksum of b.
func CRC32C(b []byte) uint32 {
	return crc32.Checksum(b, castagnoliTable)
}

// ThumbnailDimensions computes the resized (width, height) so the longer
// edge equals edge pixels, using the integer arithmetic spec.md §4.5 step 9
// mandates (300 × shorter / longer) rather than floating-point scaling —
// this must reproduce byte-identical output across runs and machines.
func ThumbnailDimensions(width, height, edge int) (int, int) {
	if width <= 0 || height <= 0 || edge <= 0 {
		return width, height
	}
	if height > width {
		return edge * width / height, edge
	}
	return edge, edge * height / width
}

// IsJPEGExtension reports whether ext (with or without a leading dot) is a
// case-insensitive match for "jpg" or "jpeg".
func IsJPEGExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return ext == "jpg" || ext == "jpeg"
}

// CloneBytes returns a copy of b (safe for use after the source buffer is
// released back to a pool).
func CloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// BytesReader creates an io.Reader backed by b without allocation.
func BytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
