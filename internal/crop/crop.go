// Package crop trims near-white borders from an image and turns the
// remaining near-white pixels transparent.
package crop

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/hupe1980/decktools/internal/output"
	"github.com/hupe1980/decktools/internal/raster"
)

// Defaults.
const (
	DefaultThreshold uint8 = 240
	DefaultPadding         = 2
)

// Options configures a crop run.
type Options struct {
	// Threshold is the channel value above which a pixel counts as white.
	// A pixel is near-white only when all of R, G and B exceed it.
	Threshold uint8

	// Padding is the margin kept around the content, clamped to the image.
	Padding int
}

// DefaultOptions returns threshold 240 and padding 2.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, Padding: DefaultPadding}
}

func nearWhite(c color.NRGBA, threshold uint8) bool {
	return c.R > threshold && c.G > threshold && c.B > threshold
}

// ContentBounds returns the smallest rectangle holding every pixel that is
// not near-white. The second result is false when there is no such pixel.
func ContentBounds(img *image.NRGBA, threshold uint8) (image.Rectangle, bool) {
	b := img.Bounds()
	found := false

	var r image.Rectangle

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if nearWhite(img.NRGBAAt(x, y), threshold) {
				continue
			}

			px := image.Rect(x, y, x+1, y+1)
			if !found {
				r, found = px, true
				continue
			}

			r = r.Union(px)
		}
	}

	return r, found
}

// CropBorders returns a copy of img cropped to its content bounds expanded
// by opts.Padding. An image without content is returned uncropped.
func CropBorders(img image.Image, opts Options) *image.NRGBA {
	src := imaging.Clone(img)

	content, ok := ContentBounds(src, opts.Threshold)
	if !ok {
		return src
	}

	box := content.Inset(-opts.Padding).Intersect(src.Bounds())

	return imaging.Crop(src, box)
}

// MakeTransparent replaces every near-white pixel of img with fully
// transparent white, in place.
func MakeTransparent(img *image.NRGBA, threshold uint8) {
	b := img.Bounds()
	transparent := color.NRGBA{R: 255, G: 255, B: 255, A: 0}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if nearWhite(img.NRGBAAt(x, y), threshold) {
				img.SetNRGBA(x, y, transparent)
			}
		}
	}
}

// Process crops img and then makes the near-white remainder transparent.
func Process(img image.Image, opts Options) *image.NRGBA {
	out := CropBorders(img, opts)
	MakeTransparent(out, opts.Threshold)

	return out
}

// DefaultOutputPath returns "<dir>/<stem>_processed.png" for input.
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(filepath.Base(input), ext)

	return filepath.Join(filepath.Dir(input), stem+"_processed.png")
}

// ProcessFile processes the image at input and writes it PNG-encoded to
// outPath, or to DefaultOutputPath(input) when outPath is empty. It returns
// the path written.
func ProcessFile(input, outPath string, opts Options) (string, error) {
	if outPath == "" {
		outPath = DefaultOutputPath(input)
	}

	img, err := raster.Open(input)
	if err != nil {
		return "", err
	}

	data, err := raster.Encode(Process(img.Image, opts), "png")
	if err != nil {
		return "", err
	}

	if err := output.WriteFile(outPath, data); err != nil {
		return "", fmt.Errorf("saving %s: %w", outPath, err)
	}

	return outPath, nil
}
