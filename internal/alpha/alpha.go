// Package alpha reports whether images actually use their alpha channel.
package alpha

import (
	"fmt"
	"image"

	"github.com/hupe1980/decktools/internal/raster"
	"github.com/hupe1980/decktools/internal/report"
)

// Verdict classifies an image's transparency.
type Verdict string

// Verdicts.
const (
	// VerdictTransparent means at least one pixel is not fully opaque.
	VerdictTransparent Verdict = "transparent"

	// VerdictOpaque means the colour model carries alpha but every pixel is
	// fully opaque.
	VerdictOpaque Verdict = "opaque"

	// VerdictNoAlpha means the colour model has no alpha channel.
	VerdictNoAlpha Verdict = "no-alpha"
)

// Description returns the status line printed for the verdict.
func (v Verdict) Description() string {
	switch v {
	case VerdictTransparent:
		return "HAS actual transparency"
	case VerdictOpaque:
		return "alpha channel present but all pixels are OPAQUE"
	default:
		return "NO alpha channel"
	}
}

// Inspection is the result of inspecting one image.
type Inspection struct {
	Path    string  `json:"path" yaml:"path"`
	Format  string  `json:"format" yaml:"format"`
	Mode    string  `json:"mode" yaml:"mode"`
	Alpha   bool    `json:"alpha" yaml:"alpha"`
	Min     uint8   `json:"min" yaml:"min"`
	Max     uint8   `json:"max" yaml:"max"`
	Verdict Verdict `json:"verdict" yaml:"verdict"`
}

// Details returns the inspection as report detail lines.
func (in *Inspection) Details() []string {
	details := []string{fmt.Sprintf("mode: %s (%s)", in.Mode, in.Format)}

	if in.Alpha {
		details = append(details, fmt.Sprintf("alpha extrema: (%d, %d)", in.Min, in.Max))
	}

	return append(details, "status: "+in.Verdict.Description())
}

// Inspect decodes the image at path and scans its alpha channel.
func Inspect(path string) (*Inspection, error) {
	img, err := raster.Open(path)
	if err != nil {
		return nil, err
	}

	in := &Inspection{
		Path:    path,
		Format:  img.Format,
		Mode:    img.Mode,
		Verdict: VerdictNoAlpha,
	}

	if !img.Alpha {
		return in, nil
	}

	in.Alpha = true
	in.Min, in.Max = Extrema(img)

	if in.Min < 255 {
		in.Verdict = VerdictTransparent
	} else {
		in.Verdict = VerdictOpaque
	}

	return in, nil
}

// Extrema returns the minimum and maximum 8-bit alpha over all pixels. An
// empty image reports (255, 255).
func Extrema(img image.Image) (lo, hi uint8) {
	b := img.Bounds()
	if b.Empty() {
		return 255, 255
	}

	lo, hi = 255, 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := raster.Alpha8(img, x, y)
			lo = min(lo, a)
			hi = max(hi, a)
		}
	}

	return lo, hi
}

// Run inspects every path in order. An unreadable image becomes an error
// item and the remaining paths are still inspected.
func Run(paths []string) (*report.Result, []*Inspection) {
	result := report.New("alpha")

	var inspections []*Inspection

	for _, p := range paths {
		in, err := Inspect(p)
		if err != nil {
			result.Fail(p, err)
			continue
		}

		inspections = append(inspections, in)
		result.OK(p, in.Details()...)
	}

	return result, inspections
}
