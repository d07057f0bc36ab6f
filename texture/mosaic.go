package texture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Mosaic joins equally sized tiles into one texture. Tiles are given row by
// row, left to right, the way global imagery is published in A1..D2 blocks.
func Mosaic(tiles []Texture, cols, rows int) (*image.NRGBA, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("invalid layout %dx%d", cols, rows)
	}
	if len(tiles) != cols*rows {
		return nil, fmt.Errorf("expected %d tiles, got %d", cols*rows, len(tiles))
	}
	tileW, tileH := tiles[0].Width, tiles[0].Height
	if tiles[0].IsZero() || tileW == 0 || tileH == 0 {
		return nil, errors.New("empty tile")
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, cols*tileW, rows*tileH))
	for idx, tile := range tiles {
		if tile.IsZero() || tile.Width != tileW || tile.Height != tileH {
			return nil, fmt.Errorf("tile %d: size mismatch, expected %dx%d, got %dx%d",
				idx, tileW, tileH, tile.Width, tile.Height)
		}
		x := (idx % cols) * tileW
		y := (idx / cols) * tileH
		draw.Draw(canvas, image.Rect(x, y, x+tileW, y+tileH), tile.img, tile.img.Bounds().Min, draw.Src)
	}
	return canvas, nil
}

// Resize resamples t to width×height with bilinear filtering. A texture that
// already has that size is returned as is.
func Resize(t Texture, width, height int) Texture {
	if t.IsZero() || width < 1 || height < 1 || (t.Width == width && t.Height == height) {
		return t
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), t.img, t.img.Bounds(), xdraw.Src, nil)
	return FromImage(dst)
}

// LimitWidth shrinks t to at most maxWidth pixels wide, keeping the aspect.
func LimitWidth(t Texture, maxWidth int) Texture {
	if t.IsZero() || maxWidth < 1 || t.Width <= maxWidth {
		return t
	}
	h := max(1, t.Height*maxWidth/t.Width)
	return Resize(t, maxWidth, h)
}

// Image returns the underlying image, nil for the zero texture.
func (t Texture) Image() image.Image {
	return t.img
}
