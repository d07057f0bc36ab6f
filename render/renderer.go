package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/echoflaresat/geochron/colors"
	"github.com/echoflaresat/geochron/earth"
	"github.com/echoflaresat/geochron/solar"
	"github.com/echoflaresat/geochron/texture"
	"github.com/echoflaresat/geochron/vectors"
)

// ErrInvalidSize is returned for a non-positive or oversized image.
var ErrInvalidSize = errors.New("invalid image size")

// MaxDimension bounds either side of a rendered map.
const MaxDimension = 8192

// Shading selects how the day/night split is computed per pixel.
type Shading int

const (
	// ShadeSmooth blends across the terminator using the sun's elevation.
	ShadeSmooth Shading = iota
	// ShadePredicate paints each pixel from solar.IsDaylight.
	ShadePredicate
)

func (s Shading) String() string {
	if s == ShadePredicate {
		return "predicate"
	}
	return "smooth"
}

// ParseShading accepts "smooth" or "predicate"; empty selects smooth.
func ParseShading(s string) (Shading, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "smooth":
		return ShadeSmooth, nil
	case "predicate":
		return ShadePredicate, nil
	}
	return ShadeSmooth, fmt.Errorf("unknown shading %q", s)
}

type Theme struct {
	Day          colors.Color4
	Night        colors.Color4
	Terminator   colors.Color4
	Subsolar     colors.Color4
	NightOpacity float64
	DayTexture   texture.Texture
	NightTexture texture.Texture
}

// DefaultTheme paints flat land-free colors with the classic navy night fill.
func DefaultTheme() Theme {
	return Theme{
		Day:          colors.New(0.55, 0.75, 0.95, 1.0),
		Night:        colors.From8BitRgb(0x00, 0x1a, 0x33, 0xff),
		Terminator:   colors.New(1.0, 0.85, 0.3, 1.0),
		Subsolar:     colors.New(1.0, 0.95, 0.2, 1.0),
		NightOpacity: 0.6,
	}
}

type Options struct {
	Width      int
	Height     int
	Shading    Shading
	Resolution int // terminator samples; 720 when zero
	Workers    int // GOMAXPROCS when zero
	Precise    bool
	MarkerSize int // subsolar marker radius in pixels; 0 picks one from the width
	Theme      Theme
}

func (o Options) withDefaults() Options {
	if o.Resolution <= 0 {
		o.Resolution = 720
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.MarkerSize <= 0 {
		o.MarkerSize = max(2, o.Width/200)
	}
	if o.Theme.isZero() {
		o.Theme = DefaultTheme()
	}
	return o
}

func (t Theme) isZero() bool {
	var zero colors.Color4
	return t.Day == zero && t.Night == zero && t.Terminator == zero && t.Subsolar == zero &&
		t.NightOpacity == 0 && t.DayTexture.IsZero() && t.NightTexture.IsZero()
}

// Smoothstep performs a Hermite interpolation between 0 and 1 across [edge0, edge1].
// Returns 0 if x < edge0, 1 if x > edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	// Avoid division by zero
	if edge0 == edge1 {
		if x < edge0 {
			return 0.0
		}
		return 1.0
	}

	t := (x - edge0) / (edge1 - edge0)
	if t < 0.0 {
		t = 0.0
	} else if t > 1.0 {
		t = 1.0
	}
	return t * t * (3.0 - 2.0*t)
}

// BlendNightDayEnergyConserving blends day and night colors using an
// energy-conserving root-sum-square method to ensure a smooth transition.
func BlendNightDayEnergyConserving(CDay, CNight colors.Color4, light float64) colors.Color4 {
	r := math.Sqrt((1-light)*CNight.R*CNight.R + light*CDay.R*CDay.R)
	g := math.Sqrt((1-light)*CNight.G*CNight.G + light*CDay.G*CDay.G)
	b := math.Sqrt((1-light)*CNight.B*CNight.B + light*CDay.B*CDay.B)
	return colors.Color4{R: r, G: g, B: b, A: 1.0}
}

// PixelCenter returns the latitude/longitude at the centre of pixel (x, y)
// of a width×height equirectangular map.
func PixelCenter(x, y, width, height int) (lat, lon float64) {
	lat = 90 - (float64(y)+0.5)*180/float64(height)
	lon = -180 + (float64(x)+0.5)*360/float64(width)
	return lat, lon
}

// PixelOf returns the pixel containing p.
func PixelOf(p earth.GeoPoint, width, height int) (x, y int) {
	x = int((p.Lon + 180) / 360 * float64(width))
	y = int((90 - p.Lat) / 180 * float64(height))
	return min(max(x, 0), width-1), min(max(y, 0), height-1)
}

// RenderNightMap renders an equirectangular map of the Earth at t with the
// night side shaded, the terminator traced and the subsolar point marked.
// Rows are shaded concurrently; cancelling ctx aborts the render.
func RenderNightMap(ctx context.Context, t time.Time, opts Options) (*image.NRGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.Width > MaxDimension || opts.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	opts = opts.withDefaults()

	sun := solar.SubsolarPoint(t)
	if opts.Precise {
		sun = earth.ReferenceSubsolarPoint(t)
	}
	sunDir := sun.Vector()

	img := image.NewNRGBA(image.Rect(0, 0, opts.Width, opts.Height))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for y := 0; y < opts.Height; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			shadeRow(img, y, t, sunDir, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	drawTerminator(img, solar.TerminatorAround(sun, opts.Resolution), opts.Theme.Terminator)
	drawDisc(img, sun, opts.MarkerSize, opts.Theme.Subsolar)
	return img, nil
}

func shadeRow(img *image.NRGBA, y int, t time.Time, sunDir vectors.Vec3, opts Options) {
	w, h := opts.Width, opts.Height
	theme := opts.Theme
	for x := 0; x < w; x++ {
		lat, lon := PixelCenter(x, y, w, h)

		var light float64
		switch opts.Shading {
		case ShadePredicate:
			if solar.IsDaylight(lat, lon, t) {
				light = 1
			}
		default:
			// Cosine of the solar zenith angle, softened around the horizon.
			light = Smoothstep(-0.1, 0.1, vectors.FromLatLon(lat, lon).Dot(sunDir))
		}

		img.SetNRGBA(x, y, shade(theme, lat, lon, light).ToNRGBA())
	}
}

func shade(theme Theme, lat, lon, light float64) colors.Color4 {
	day := theme.Day
	if !theme.DayTexture.IsZero() {
		day = theme.DayTexture.Sample(lat, lon)
	}
	if !theme.NightTexture.IsZero() {
		return BlendNightDayEnergyConserving(day, theme.NightTexture.Sample(lat, lon), light)
	}
	night := theme.Night
	night.A = 1
	return day.MixAlpha(night, (1-light)*theme.NightOpacity).Clamp01()
}

// drawTerminator joins consecutive samples, skipping the jump across the
// antimeridian.
func drawTerminator(img *image.NRGBA, points []earth.GeoPoint, c colors.Color4) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	px := c.ToNRGBA()
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if math.Abs(b.Lon-a.Lon) > 180 {
			continue
		}
		x0, y0 := PixelOf(a, w, h)
		x1, y1 := PixelOf(b, w, h)
		steps := max(abs(x1-x0), abs(y1-y0), 1)
		for s := 0; s <= steps; s++ {
			f := float64(s) / float64(steps)
			x := x0 + int(math.Round(f*float64(x1-x0)))
			y := y0 + int(math.Round(f*float64(y1-y0)))
			img.SetNRGBA(x, y, px)
		}
	}
}

func drawDisc(img *image.NRGBA, p earth.GeoPoint, r int, c colors.Color4) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	cx, cy := PixelOf(p, w, h)
	px := c.ToNRGBA()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			// wrap horizontally, clip vertically
			x := ((cx+dx)%w + w) % w
			y := cy + dy
			if y < 0 || y >= h {
				continue
			}
			img.SetNRGBA(x, y, px)
		}
	}
}

// WritePNG encodes img as PNG, favouring speed over size.
func WritePNG(w io.Writer, img image.Image) error {
	return (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(w, img)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
