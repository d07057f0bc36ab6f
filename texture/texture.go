package texture

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/echoflaresat/tiff"
	"golang.org/x/exp/mmap"

	"github.com/echoflaresat/geochron/colors"

	_ "image/jpeg" // register JPEG format with image.Decode
	_ "image/png"  // register PNG format with image.Decode
)

// Texture is an equirectangular image of the Earth: x spans longitude
// -180..180 left to right, y spans latitude 90..-90 top to bottom.
type Texture struct {
	Width  int
	Height int
	img    image.Image
	closer io.Closer // backing file of lazily decoded TIFFs
}

// Load decodes the texture at path. TIFF is tried first, then any format
// registered with image.Decode. TIFF pixels are read from the mapped file on
// demand, so the file stays mapped until Close.
func Load(path string) (Texture, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return Texture{}, err
	}

	img, err := decode(io.NewSectionReader(reader, 0, int64(reader.Len())))
	if err != nil {
		reader.Close()
		return Texture{}, fmt.Errorf("decode %s: %w", path, err)
	}
	slog.Debug("loaded texture", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	tex := FromImage(img)
	tex.closer = reader
	return tex, nil
}

// Close releases the backing file, if any. The texture must not be sampled
// afterwards.
func (t Texture) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

func decode(r *io.SectionReader) (image.Image, error) {
	img, err := tiff.Decode(r)
	if err == nil {
		return img, nil
	}
	slog.Debug("not a TIFF, falling back to image codecs", "error", err)

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, _, err = image.Decode(r)
	return img, err
}

// Decode reads a texture from encoded bytes.
func Decode(data []byte) (Texture, error) {
	img, err := decode(io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data))))
	if err != nil {
		return Texture{}, err
	}
	return FromImage(img), nil
}

// FromImage wraps an already decoded image.
func FromImage(img image.Image) Texture {
	return Texture{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		img:    img,
	}
}

// IsZero reports whether no image is attached.
func (t Texture) IsZero() bool {
	return t.img == nil
}

// Sample returns the color at latitude/longitude in degrees, nearest pixel.
func (t Texture) Sample(latDeg, lonDeg float64) colors.Color4 {
	if t.img == nil || t.Width == 0 || t.Height == 0 {
		return colors.Black()
	}
	if math.IsNaN(latDeg) || math.IsNaN(lonDeg) || math.IsInf(lonDeg, 0) {
		slog.Warn("texture sample at non-finite position", "lat", latDeg, "lon", lonDeg)
		return colors.Black()
	}

	u := (lonDeg + 180) / 360 * float64(t.Width)
	u = math.Mod(u, float64(t.Width))
	if u < 0 {
		u += float64(t.Width)
	}
	v := (90 - latDeg) / 180 * float64(t.Height)

	x := int(u)
	y := int(v)

	if x < 0 {
		x = 0
	} else if x >= t.Width {
		x = t.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.Height {
		y = t.Height - 1
	}

	b := t.img.Bounds()
	c := t.img.At(b.Min.X+x, b.Min.Y+y)
	return colors.FromStandardColor(c)
}
