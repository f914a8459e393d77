// Package raster holds the image primitives shared by the alpha, crop, and
// mask tools: decoding with format detection, colour-model names, and
// format-preserving encoding.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	"k8s.io/apimachinery/pkg/util/sets"

	// Register the WebP decoder with image.Decode.
	_ "golang.org/x/image/webp"
)

var (
	// ErrOutOfBounds is returned when a point or rectangle lies outside the image.
	ErrOutOfBounds = errors.New("outside image bounds")

	// ErrUnsupportedFormat is returned when an image cannot be encoded in
	// the requested format.
	ErrUnsupportedFormat = errors.New("unsupported encoding format")
)

// Colour model names reported by ModeName.
const (
	ModeRGB      = "RGB"
	ModeRGB48    = "RGB48"
	ModeRGBA     = "RGBA"
	ModeRGBA64   = "RGBA64"
	ModeNRGBA    = "NRGBA"
	ModeNRGBA64  = "NRGBA64"
	ModeAlpha    = "Alpha"
	ModeAlpha16  = "Alpha16"
	ModeGray     = "Gray"
	ModeGray16   = "Gray16"
	ModeCMYK     = "CMYK"
	ModeYCbCr    = "YCbCr"
	ModeNYCbCrA  = "NYCbCrA"
	ModePaletted = "Paletted"
	ModeUnknown  = "Unknown"
)

var alphaModes = sets.New(
	ModeRGBA, ModeRGBA64, ModeNRGBA, ModeNRGBA64,
	ModeAlpha, ModeAlpha16, ModeNYCbCrA,
)

// Image is a decoded image together with the format it was stored in.
type Image struct {
	image.Image

	// Format is the encoding the file was read from ("png", "jpeg", ...).
	Format string

	// Mode names the pixel layout of the file.
	Mode string

	// Alpha reports whether the file carries transparency information.
	Alpha bool
}

// Open decodes the image at path and records its format and pixel mode.
//
// The PNG decoder returns *image.RGBA and *image.RGBA64 only for truecolor
// files without an alpha channel or tRNS chunk; those are reported as RGB
// and RGB48 without alpha. Files with alpha decode to the NRGBA types.
func Open(path string) (*Image, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-selected input
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	out := &Image{
		Image:  img,
		Format: format,
		Mode:   ModeName(img),
		Alpha:  AlphaCapable(img),
	}

	if format == "png" {
		switch img.(type) {
		case *image.RGBA:
			out.Mode, out.Alpha = ModeRGB, false
		case *image.RGBA64:
			out.Mode, out.Alpha = ModeRGB48, false
		}
	}

	return out, nil
}

// ModeName returns the name of img's colour model.
func ModeName(img image.Image) string {
	switch img.(type) {
	case *image.RGBA:
		return ModeRGBA
	case *image.RGBA64:
		return ModeRGBA64
	case *image.NRGBA:
		return ModeNRGBA
	case *image.NRGBA64:
		return ModeNRGBA64
	case *image.Alpha:
		return ModeAlpha
	case *image.Alpha16:
		return ModeAlpha16
	case *image.Gray:
		return ModeGray
	case *image.Gray16:
		return ModeGray16
	case *image.CMYK:
		return ModeCMYK
	case *image.YCbCr:
		return ModeYCbCr
	case *image.NYCbCrA:
		return ModeNYCbCrA
	case *image.Paletted:
		return ModePaletted
	default:
		return ModeUnknown
	}
}

// AlphaCapable reports whether img's colour model can carry transparency.
// A paletted image qualifies only when its palette has a non-opaque entry.
func AlphaCapable(img image.Image) bool {
	if p, ok := img.(*image.Paletted); ok {
		for _, c := range p.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}

		return false
	}

	return alphaModes.Has(ModeName(img))
}

// Alpha8 returns the non-premultiplied 8-bit alpha of the pixel at (x, y).
func Alpha8(img image.Image, x, y int) uint8 {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA).A
}

// Encode serializes img in the named format. Formats imaging cannot write,
// such as webp, yield ErrUnsupportedFormat.
func Encode(img image.Image, format string) ([]byte, error) {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}

	return buf.Bytes(), nil
}
