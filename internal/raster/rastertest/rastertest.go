// Package rastertest builds PNG fixtures with an exact colour type, which
// image/png cannot do: its encoder drops the alpha channel of opaque images.
package rastertest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
)

// PNG colour types.
const (
	ColorTypeRGB  byte = 2
	ColorTypeRGBA byte = 6
)

// PNG encodes img as an 8-bit truecolor PNG. With withAlpha the file uses
// colour type 6 (RGBA) even when every pixel is opaque; otherwise colour
// type 2 (RGB) and the alpha channel is discarded.
func PNG(img *image.NRGBA, withAlpha bool) []byte {
	b := img.Bounds()

	colorType, channels := ColorTypeRGB, 3
	if withAlpha {
		colorType, channels = ColorTypeRGBA, 4
	}

	var raw bytes.Buffer

	for y := b.Min.Y; y < b.Max.Y; y++ {
		raw.WriteByte(0) // filter: none

		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			raw.Write([]byte{c.R, c.G, c.B, c.A}[:channels])
		}
	}

	var idat bytes.Buffer

	zw := zlib.NewWriter(&idat)
	_, _ = zw.Write(raw.Bytes())
	_ = zw.Close()

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(b.Dx())) //nolint:gosec // fixture sizes are small
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(b.Dy())) //nolint:gosec // fixture sizes are small
	ihdr[8] = 8
	ihdr[9] = colorType

	var out bytes.Buffer

	out.WriteString("\x89PNG\r\n\x1a\n")
	writeChunk(&out, "IHDR", ihdr)
	writeChunk(&out, "IDAT", idat.Bytes())
	writeChunk(&out, "IEND", nil)

	return out.Bytes()
}

func writeChunk(w *bytes.Buffer, typ string, data []byte) {
	var n [4]byte

	binary.BigEndian.PutUint32(n[:], uint32(len(data))) //nolint:gosec // chunk sizes are small
	w.Write(n[:])

	crc := crc32.NewIEEE()
	_, _ = crc.Write([]byte(typ))
	_, _ = crc.Write(data)

	w.WriteString(typ)
	w.Write(data)
	binary.BigEndian.PutUint32(n[:], crc.Sum32())
	w.Write(n[:])
}

// WebP is a 1x1 lossless WebP image. No Go encoder exists for the format.
var WebP = []byte("RIFF\x1a\x00\x00\x00WEBPVP8L\x0d\x00\x00\x00\x2f\x00\x00\x00\x10\x07\x10\x11\x11\x88\x88\xfe\x07\x00")
