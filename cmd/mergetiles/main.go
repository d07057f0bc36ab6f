// Command mergetiles stitches equirectangular imagery tiles into a single
// day or night texture for geochron.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/echoflaresat/geochron/texture"
)

func main() {
	maxWidth := flag.Int("max-width", 0, "Downscale the result to at most this many pixels wide (0 keeps full size)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-max-width N] <cols>x<rows> <output.png|jpg> <tile1> <tile2> ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 3 {
		flag.Usage()
		os.Exit(1)
	}

	cols, rows, err := parseLayout(args[0])
	if err != nil {
		log.Fatal(err)
	}
	output := args[1]
	inputFiles := args[2:]
	if len(inputFiles) != cols*rows {
		log.Fatalf("Expected %d input files, got %d", cols*rows, len(inputFiles))
	}

	tiles := make([]texture.Texture, len(inputFiles))
	for i, path := range inputFiles {
		fmt.Printf("Processing %s\n", path)
		tiles[i], err = texture.Load(path)
		if err != nil {
			log.Fatalf("Could not load input file %q: %v", path, err)
		}
	}

	canvas, err := texture.Mosaic(tiles, cols, rows)
	for _, tile := range tiles {
		tile.Close()
	}
	if err != nil {
		log.Fatal(err)
	}
	merged := texture.LimitWidth(texture.FromImage(canvas), *maxWidth)

	if err := save(output, merged.Image()); err != nil {
		log.Fatal(err)
	}
}

func parseLayout(s string) (cols, rows int, err error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid tile layout %q (expected NxM)", s)
	}
	if cols, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid cols: %w", err)
	}
	if rows, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid rows: %w", err)
	}
	return cols, rows, nil
}

func save(output string, img image.Image) error {
	fmt.Printf("-> creating %s\n", output)
	outFile, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", output, err)
	}
	defer outFile.Close()

	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".png":
		return png.Encode(outFile, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(outFile, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("unsupported output format: %s", ext)
	}
}
