package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// quadrants builds a 4×2 map: west/east halves differ, as do north/south.
func quadrants() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 200), B: 10, A: 255})
		}
	}
	return img
}

func TestSampleEquirectangular(t *testing.T) {
	tex := FromImage(quadrants())

	cases := []struct {
		name     string
		lat, lon float64
		x, y     int
	}{
		{"north-west corner", 89, -179, 0, 0},
		{"south-east corner", -89, 179, 3, 1},
		{"greenwich north", 10, 1, 2, 0},
		{"antimeridian wraps", 10, 180, 0, 0},
		{"south pole clamps", -90, -100, 0, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := tex.Sample(c.lat, c.lon).ToNRGBA()
			want := quadrants().NRGBAAt(c.x, c.y)
			if got != want {
				t.Fatalf("Sample(%v, %v) = %v, want pixel (%d,%d) %v", c.lat, c.lon, got, c.x, c.y, want)
			}
		})
	}
}

func TestSampleEmptyTexture(t *testing.T) {
	var tex Texture
	if !tex.IsZero() {
		t.Fatal("zero texture must report IsZero")
	}
	if c := tex.Sample(0, 0); c.R != 0 || c.A != 1 {
		t.Fatalf("empty texture sample = %+v, want opaque black", c)
	}
}

func TestLoadPNGFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, quadrants()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tex, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer tex.Close()
	if tex.Width != 4 || tex.Height != 2 {
		t.Fatalf("size = %dx%d, want 4x2", tex.Width, tex.Height)
	}

	fromBytes, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fromBytes.Sample(-45, 100) != tex.Sample(-45, 100) {
		t.Fatal("Decode and Load disagree")
	}
	if err := fromBytes.Close(); err != nil {
		t.Fatalf("Close of an in-memory texture: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.tif")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Fatal("Decode of garbage succeeded")
	}
}
