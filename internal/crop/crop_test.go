package crop

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paper = color.NRGBA{R: 250, G: 252, B: 248, A: 255}
	ink   = color.NRGBA{R: 20, G: 40, B: 200, A: 255}
)

// canvas returns a w×h near-white image with rect painted in ink.
func canvas(w, h int, rect image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if image.Pt(x, y).In(rect) {
				img.SetNRGBA(x, y, ink)
			} else {
				img.SetNRGBA(x, y, paper)
			}
		}
	}

	return img
}

// ---------------------------------------------------------------------------
// ContentBounds
// ---------------------------------------------------------------------------

func TestContentBounds(t *testing.T) {
	r := image.Rect(5, 7, 12, 9)

	got, ok := ContentBounds(canvas(20, 20, r), DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, r, got)
}

func TestContentBounds_SinglePixel(t *testing.T) {
	r := image.Rect(3, 4, 4, 5)

	got, ok := ContentBounds(canvas(10, 10, r), DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, r, got)
}

func TestContentBounds_Blank(t *testing.T) {
	_, ok := ContentBounds(canvas(10, 10, image.Rectangle{}), DefaultThreshold)
	assert.False(t, ok)
}

func TestContentBounds_OneChannelAtThresholdIsContent(t *testing.T) {
	img := canvas(4, 4, image.Rectangle{})
	img.SetNRGBA(1, 2, color.NRGBA{R: 255, G: 240, B: 255, A: 255})

	got, ok := ContentBounds(img, 240)
	require.True(t, ok)
	assert.Equal(t, image.Rect(1, 2, 2, 3), got)
}

// ---------------------------------------------------------------------------
// Process
// ---------------------------------------------------------------------------

func TestProcess_CropsToContentPlusPadding(t *testing.T) {
	r := image.Rect(10, 20, 30, 25)
	out := Process(canvas(50, 50, r), DefaultOptions())

	assert.Equal(t, r.Dx()+2*DefaultPadding, out.Bounds().Dx())
	assert.Equal(t, r.Dy()+2*DefaultPadding, out.Bounds().Dy())

	// Content now starts at (padding, padding).
	shifted := r.Sub(r.Min).Add(image.Pt(DefaultPadding, DefaultPadding))

	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := out.NRGBAAt(x, y)
			if image.Pt(x, y).In(shifted) {
				assert.Equal(t, ink, px, "content pixel (%d,%d)", x, y)
			} else {
				assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 0}, px, "border pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestProcess_PaddingClampedAtEdges(t *testing.T) {
	r := image.Rect(0, 1, 6, 10)
	out := Process(canvas(10, 10, r), DefaultOptions())

	// Left and bottom touch the canvas edge; only right and top get padding.
	assert.Equal(t, image.Rect(0, 0, 8, 10), out.Bounds())
}

func TestProcess_BlankImageKeepsDimensions(t *testing.T) {
	out := Process(canvas(13, 7, image.Rectangle{}), DefaultOptions())

	assert.Equal(t, image.Rect(0, 0, 13, 7), out.Bounds())
	assert.Equal(t, uint8(0), out.NRGBAAt(6, 3).A, "pixels are still made transparent")
}

func TestProcess_Idempotent(t *testing.T) {
	once := Process(canvas(40, 30, image.Rect(8, 5, 20, 22)), DefaultOptions())
	twice := Process(once, DefaultOptions())

	assert.Equal(t, once.Bounds(), twice.Bounds())
	assert.Equal(t, once.Pix, twice.Pix)
}

func TestMakeTransparent_LeavesContent(t *testing.T) {
	img := canvas(3, 1, image.Rect(1, 0, 2, 1))
	MakeTransparent(img, DefaultThreshold)

	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)
	assert.Equal(t, ink, img.NRGBAAt(1, 0))
	assert.Equal(t, uint8(0), img.NRGBAAt(2, 0).A)
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("assets", "logo_processed.png"), DefaultOutputPath(filepath.Join("assets", "logo.jpg")))
	assert.Equal(t, "chart_processed.png", DefaultOutputPath("chart.png"))
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "figure.png")

	f, err := os.Create(in) //nolint:gosec // test
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, canvas(30, 30, image.Rect(10, 10, 15, 20))))
	require.NoError(t, f.Close())

	written, err := ProcessFile(in, "", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "figure_processed.png"), written)

	rf, err := os.Open(written) //nolint:gosec // test
	require.NoError(t, err)
	defer rf.Close()

	out, err := png.Decode(rf)
	require.NoError(t, err)
	assert.Equal(t, 9, out.Bounds().Dx())
	assert.Equal(t, 14, out.Bounds().Dy())
}

func TestProcessFile_MissingInput(t *testing.T) {
	dir := t.TempDir()

	_, err := ProcessFile(filepath.Join(dir, "nope.png"), "", DefaultOptions())
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "nope_processed.png"))
	assert.True(t, os.IsNotExist(statErr))
}
