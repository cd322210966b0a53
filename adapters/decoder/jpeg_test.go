package decoder_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/Skryldev/photo-archive/adapters/decoder"
)

func TestJPEG_Decode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	d := decoder.NewJPEG()
	decoded, err := d.Decode(context.Background(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 32 {
		t.Fatalf("unexpected bounds %v", decoded.Bounds())
	}
}

func TestJPEG_Decode_RejectsGarbage(t *testing.T) {
	d := decoder.NewJPEG()
	_, err := d.Decode(context.Background(), bytes.NewReader([]byte("not a jpeg")))
	if err == nil {
		t.Fatal("expected an error decoding garbage input")
	}
}
