// Package mask paints fixed rectangles of an image with a colour sampled
// from the same image.
package mask

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/output"
	"github.com/hupe1980/decktools/internal/raster"
)

// Spec describes one masking job. Rects are half-open rectangles.
type Spec struct {
	Path   string
	Sample image.Point
	Rects  []image.Rectangle
}

// FromConfig converts the configured section into a Spec. Configured
// rectangles use inclusive corners. A non-empty path overrides cfg.Path.
func FromConfig(cfg config.MaskConfig, path string) (Spec, error) {
	if path == "" {
		path = cfg.Path
	}

	if len(cfg.Sample) != 2 {
		return Spec{}, fmt.Errorf("sample must be [x, y], got %v", cfg.Sample)
	}

	spec := Spec{
		Path:   path,
		Sample: image.Pt(cfg.Sample[0], cfg.Sample[1]),
	}

	for i, r := range cfg.Rects {
		if len(r) != 4 {
			return Spec{}, fmt.Errorf("rect %d must be [x0, y0, x1, y1], got %v", i, r)
		}

		spec.Rects = append(spec.Rects, image.Rect(r[0], r[1], r[2]+1, r[3]+1))
	}

	return spec, nil
}

// Validate checks the sample point and every rectangle against bounds.
func (s Spec) Validate(bounds image.Rectangle) error {
	if !s.Sample.In(bounds) {
		return fmt.Errorf("sample %v %w %v", s.Sample, raster.ErrOutOfBounds, bounds)
	}

	for _, r := range s.Rects {
		if r.Empty() || !r.In(bounds) {
			return fmt.Errorf("rectangle %v %w %v", r, raster.ErrOutOfBounds, bounds)
		}
	}

	return nil
}

// Apply returns a copy of img with every rectangle of spec filled with the
// colour found at spec.Sample. Pixels outside the rectangles are copied
// unchanged.
func Apply(img image.Image, spec Spec) (*image.NRGBA, error) {
	if err := spec.Validate(img.Bounds()); err != nil {
		return nil, err
	}

	fill := &image.Uniform{C: img.At(spec.Sample.X, spec.Sample.Y)}

	// imaging.Clone rebases the copy to the origin.
	offset := img.Bounds().Min
	out := imaging.Clone(img)

	for _, r := range spec.Rects {
		draw.Draw(out, r.Sub(offset), fill, image.Point{}, draw.Src)
	}

	return out, nil
}

// File masks the image at spec.Path in place, keeping its encoding format.
// Formats that cannot be re-encoded are rejected before anything is
// written. opts configure the file writer.
func File(spec Spec, opts ...output.FileWriterOption) error {
	img, err := raster.Open(spec.Path)
	if err != nil {
		return err
	}

	masked, err := Apply(img.Image, spec)
	if err != nil {
		return fmt.Errorf("masking %s: %w", spec.Path, err)
	}

	data, err := raster.Encode(masked, img.Format)
	if err != nil {
		return fmt.Errorf("masking %s: %w", spec.Path, err)
	}

	return output.NewFileWriter(spec.Path, opts...).Write(data)
}
