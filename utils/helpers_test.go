package utils_test

import (
	"testing"

	"github.com/Skryldev/photo-archive/utils"
)

func TestCRC32C_KnownVector(t *testing.T) {
	// "123456789" is the standard CRC-32C check vector.
	got := utils.CRC32C([]byte("123456789"))
	const want = 0xE3069283
	if got != want {
		t.Fatalf("CRC32C(%q) = %#x, want %#x", "123456789", got, want)
	}
}

func TestCRC32C_Deterministic(t *testing.T) {
	data := []byte("some pixel bytes, repeated for good measure")
	a := utils.CRC32C(data)
	b := utils.CRC32C(data)
	if a != b {
		t.Fatalf("CRC32C not deterministic: %#x != %#x", a, b)
	}
}

func TestThumbnailDimensions_LandscapeAndPortrait(t *testing.T) {
	cases := []struct {
		w, h, edge   int
		wantW, wantH int
	}{
		{1600, 800, 300, 300, 150},
		{800, 1600, 300, 150, 300},
		{300, 300, 300, 300, 300},
	}
	for _, c := range cases {
		gotW, gotH := utils.ThumbnailDimensions(c.w, c.h, c.edge)
		if gotW != c.wantW || gotH != c.wantH {
			t.Errorf("ThumbnailDimensions(%d,%d,%d) = (%d,%d), want (%d,%d)",
				c.w, c.h, c.edge, gotW, gotH, c.wantW, c.wantH)
		}
	}
}

func TestIsJPEGExtension(t *testing.T) {
	for _, ext := range []string{"jpg", ".jpg", "JPG", "jpeg", ".JPEG"} {
		if !utils.IsJPEGExtension(ext) {
			t.Errorf("IsJPEGExtension(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{"png", "webp", "gif"} {
		if utils.IsJPEGExtension(ext) {
			t.Errorf("IsJPEGExtension(%q) = true, want false", ext)
		}
	}
}

func TestCloneBytes_Independent(t *testing.T) {
	src := []byte{1, 2, 3}
	clone := utils.CloneBytes(src)
	clone[0] = 99
	if src[0] == 99 {
		t.Fatal("CloneBytes returned an aliased slice")
	}
}
