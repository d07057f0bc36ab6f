package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/echoflaresat/geochron/render"
	"github.com/echoflaresat/geochron/solar"
	"github.com/echoflaresat/geochron/texture"
)

type config struct {
	width, height *int
	workers       *int
	shading       *string
	precise       *bool
	out, geojson  *string
	day, night    *string
	lat, lon      *string
	timeStr       *string
	showHelp      *bool
}

func defineFlags() config {
	return config{
		width:   flag.Int("width", 2048, "Output image width in pixels"),
		height:  flag.Int("height", 0, "Output image height in pixels (defaults to width/2)"),
		workers: flag.Int("workers", 0, "Render workers (defaults to GOMAXPROCS)"),
		shading: flag.String("shading", "smooth", "Day/night shading: smooth or predicate"),
		precise: flag.Bool("precise", false, "Place the sun with the Meeus ephemeris instead of the NOAA series"),
		timeStr: flag.String("time", "", "Time in RFC3339 format (e.g., 2025-08-02T15:04:05Z); defaults to now"),

		out:     flag.String("out", "geochron.png", "Output PNG file path"),
		geojson: flag.String("geojson", "", "Also write the night polygon as GeoJSON to this path"),

		day:   flag.String("day", "", "Day texture path (flat colours when empty)"),
		night: flag.String("night", "", "Night texture path (flat colours when empty)"),

		lat: flag.String("lat", "", "Latitude to report daylight for"),
		lon: flag.String("lon", "", "Longitude to report daylight for"),

		showHelp: flag.Bool("h", false, "Show this help message"),
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `GeoChron - Day/Night World Map Generator

Usage:
  %[1]s [options]

`, os.Args[0])

	printGroup("Rendering Options", []string{"width", "height", "shading", "precise", "workers", "time"})
	printGroup("Assets", []string{"day", "night"})
	printGroup("Output", []string{"out", "geojson"})
	printGroup("Location", []string{"lat", "lon"})
	printGroup("Misc", []string{"h"})
}

func printGroup(title string, keys []string) {
	fmt.Fprintf(os.Stderr, "%s:\n", title)
	for _, name := range keys {
		if f := flag.Lookup(name); f != nil {
			fmt.Fprintf(os.Stderr, "  -%-8s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
		}
	}
	fmt.Fprintln(os.Stderr)
}

func main() {
	cfg := defineFlags()
	flag.Usage = printHelp
	flag.Parse()

	if *cfg.showHelp {
		printHelp()
		return
	}

	renderTime := parseTimeOrExit(*cfg.timeStr)

	if *cfg.lat != "" || *cfg.lon != "" {
		lat, lon := parseLocationOrExit(*cfg.lat, *cfg.lon)
		reportDaylight(lat, lon, renderTime)
	}

	shading, err := render.ParseShading(*cfg.shading)
	if err != nil {
		log.Fatal(err)
	}

	height := *cfg.height
	if height <= 0 {
		height = max(1, *cfg.width/2)
	}

	theme := render.DefaultTheme()
	theme.DayTexture = loadTextureOrExit(*cfg.day)
	theme.NightTexture = loadTextureOrExit(*cfg.night)
	defer theme.DayTexture.Close()
	defer theme.NightTexture.Close()

	print("Generating " + *cfg.out + " ")
	img, err := render.RenderNightMap(context.Background(), renderTime, render.Options{
		Width:   *cfg.width,
		Height:  height,
		Shading: shading,
		Workers: *cfg.workers,
		Precise: *cfg.precise,
		Theme:   theme,
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := writePNG(*cfg.out, img); err != nil {
		log.Fatalf("Failed to write PNG: %v", err)
	}
	println()

	if *cfg.geojson != "" {
		if err := writeGeoJSON(*cfg.geojson, renderTime); err != nil {
			log.Fatalf("Failed to write GeoJSON: %v", err)
		}
	}
}

func parseTimeOrExit(timeStr string) time.Time {
	if timeStr == "" {
		return time.Now()
	}
	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		log.Fatalf("Invalid time format: %v", err)
	}
	return t
}

func parseLocationOrExit(latStr, lonStr string) (float64, float64) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		log.Fatalf("Invalid latitude %q: must be a number in [-90, 90]", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		log.Fatalf("Invalid longitude %q: must be a number in [-180, 180]", lonStr)
	}
	return lat, lon
}

func reportDaylight(lat, lon float64, t time.Time) {
	w := solar.DayWindowAt(lat, lon, t)
	state := "night"
	if solar.IsDaylight(lat, lon, t) {
		state = "day"
	}
	fmt.Printf("%.4f, %.4f at %s: %s (sunrise %s UTC, sunset %s UTC, %s)\n",
		lat, lon, t.UTC().Format(time.RFC3339), state,
		clock(w.Sunrise), clock(w.Sunset), w.Polar)
}

// clock formats minutes after UTC midnight as hh:mm, wrapping into one day.
func clock(minutes float64) string {
	m := int(math.Floor(minutes+0.5)) % 1440
	if m < 0 {
		m += 1440
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func loadTextureOrExit(path string) texture.Texture {
	if path == "" {
		return texture.Texture{}
	}
	tex, err := texture.Load(path)
	if err != nil {
		log.Fatalf("Failed to load texture: %v", err)
	}
	return tex
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render.WritePNG(f, img)
}

func writeGeoJSON(path string, t time.Time) error {
	fc, err := render.NightGeoJSON(t, solar.DefaultResolution)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}
