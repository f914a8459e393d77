package cli

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/raster/rastertest"
	"github.com/hupe1980/decktools/internal/report"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	defer func() { require.NoError(t, f.Close()) }()

	require.NoError(t, png.Encode(f, img))
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)

	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	require.NoError(t, err)

	return img
}

// filled returns a w×h image of c.
func filled(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}

	return img
}

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

// ---------------------------------------------------------------------------
// punct
// ---------------------------------------------------------------------------

func TestPunctCommand_ConvertsDirectory(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a", "index.md")
	writeFile(t, doc, "你好，世界。\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "不变，\n")

	stdout, _, err := executeCommand("--no-color", "punct", dir)
	require.NoError(t, err)

	assert.Equal(t, "你好,世界.\n", readFile(t, doc))
	assert.Equal(t, "不变，\n", readFile(t, filepath.Join(dir, "notes.txt")))
	assert.Contains(t, stdout, doc)
	assert.Contains(t, stdout, "， -> , (1x)")
}

func TestPunctCommand_DryRunWithDiff(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "index.md")
	writeFile(t, doc, "“引号”\n")

	stdout, _, err := executeCommand("--no-color", "punct", "-n", "--diff", doc)
	require.NoError(t, err)

	assert.Equal(t, "“引号”\n", readFile(t, doc), "dry run must not write")
	assert.Contains(t, stdout, "[DRY RUN] would update "+doc)
	assert.Contains(t, stdout, "(converted)")
	assert.Contains(t, stdout, `+"引号"`)
}

func TestPunctCommand_JSONKeepsStdoutParseable(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "index.md")
	writeFile(t, doc, "好！\n")

	stdout, stderr, err := executeCommand("punct", "-n", "--diff", "--format", "json", doc)
	require.NoError(t, err)

	var result report.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result.Items, 1)
	assert.Equal(t, report.StatusOK, result.Items[0].Status)
	assert.Contains(t, stderr, "[DRY RUN]")
}

func TestPunctCommand_DefaultPathFromProject(t *testing.T) {
	dir := inProject(t, "punct:\n  path: deck\n  extension: .qmd\n")
	writeFile(t, filepath.Join(dir, "deck", "s.qmd"), "是；\n")
	writeFile(t, filepath.Join(dir, "deck", "s.md"), "否；\n")

	_, _, err := executeCommand("punct")
	require.NoError(t, err)

	assert.Equal(t, "是;\n", readFile(t, filepath.Join(dir, "deck", "s.qmd")))
	assert.Equal(t, "否；\n", readFile(t, filepath.Join(dir, "deck", "s.md")))
}

func TestPunctCommand_MissingPath(t *testing.T) {
	_, _, err := executeCommand("punct", filepath.Join(t.TempDir(), "nope"))
	requireExitCode(t, err, 2)
}

func TestPunctCommand_BadFormat(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "index.md")
	writeFile(t, doc, "好！\n")

	_, _, err := executeCommand("punct", "--format", "xml", doc)
	requireExitCode(t, err, 2)
	assert.Equal(t, "好！\n", readFile(t, doc), "a bad format must fail before any write")
}

// ---------------------------------------------------------------------------
// alpha
// ---------------------------------------------------------------------------

func TestAlphaCommand_Verdicts(t *testing.T) {
	dir := t.TempDir()

	img := filled(4, 4, white)
	img.SetNRGBA(1, 1, color.NRGBA{A: 0})

	transparent := filepath.Join(dir, "clear.png")
	opaque := filepath.Join(dir, "opaque.png")
	rgb := filepath.Join(dir, "rgb.png")
	missing := filepath.Join(dir, "missing.png")

	writePNG(t, transparent, img)
	require.NoError(t, os.WriteFile(opaque, rastertest.PNG(filled(4, 4, white), true), 0o600))
	require.NoError(t, os.WriteFile(rgb, rastertest.PNG(filled(4, 4, white), false), 0o600))

	stdout, _, err := executeCommand("alpha", "--format", "json", transparent, opaque, rgb, missing)
	require.NoError(t, err, "unreadable images do not fail the command")

	var result report.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result.Items, 4)

	assert.Contains(t, result.Items[0].Details, "status: HAS actual transparency")
	assert.Contains(t, result.Items[0].Details, "alpha extrema: (0, 255)")
	assert.Contains(t, result.Items[1].Details, "status: alpha channel present but all pixels are OPAQUE")
	assert.Equal(t, []string{"mode: RGB (png)", "status: NO alpha channel"}, result.Items[2].Details)
	assert.Equal(t, report.StatusError, result.Items[3].Status)
}

// ---------------------------------------------------------------------------
// crop
// ---------------------------------------------------------------------------

func TestCropCommand_WritesProcessedPNG(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "diagram.png")

	img := filled(20, 20, white)
	for y := 8; y < 12; y++ {
		for x := 6; x < 10; x++ {
			img.SetNRGBA(x, y, black)
		}
	}

	writePNG(t, in, img)

	stdout, _, err := executeCommand("crop", in)
	require.NoError(t, err)

	out := filepath.Join(dir, "diagram_processed.png")
	assert.Equal(t, "Saved: "+out+"\n", stdout)

	got := readPNG(t, out)
	assert.Equal(t, image.Rect(0, 0, 8, 8), got.Bounds().Sub(got.Bounds().Min))

	_, _, _, a := got.At(got.Bounds().Min.X, got.Bounds().Min.Y).RGBA()
	assert.Zero(t, a, "padding pixels become transparent")
}

func TestCropCommand_OutputFlag(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "custom.png")
	writePNG(t, in, filled(4, 4, black))

	stdout, _, err := executeCommand("crop", in, "-o", out, "-t", "200")
	require.NoError(t, err)
	assert.Contains(t, stdout, out)
	assert.FileExists(t, out)
}

func TestCropCommand_ThresholdOutOfRange(t *testing.T) {
	for _, th := range []string{"-1", "256"} {
		t.Run(th, func(t *testing.T) {
			_, _, err := executeCommand("crop", "in.png", "--threshold", th)
			requireExitCode(t, err, 2)
		})
	}
}

func TestCropCommand_MissingInput(t *testing.T) {
	_, _, err := executeCommand("crop", filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)

	var exitErr *ExitError
	assert.NotErrorAs(t, err, &exitErr, "runtime failures exit with code 1")
}

// ---------------------------------------------------------------------------
// mask
// ---------------------------------------------------------------------------

func TestMaskCommand_FillsConfiguredRects(t *testing.T) {
	dir := inProject(t, `mask:
  path: logo.png
  sample: [0, 0]
  rects:
    - [2, 2, 3, 3]
`)

	img := filled(6, 6, red)
	img.SetNRGBA(2, 2, black)
	img.SetNRGBA(3, 3, black)
	img.SetNRGBA(5, 5, black)
	writePNG(t, filepath.Join(dir, "logo.png"), img)

	stdout, _, err := executeCommand("mask")
	require.NoError(t, err)
	assert.Equal(t, "Logo masked in logo.png\n", stdout)

	got := readPNG(t, filepath.Join(dir, "logo.png"))
	assert.Equal(t, red, color.NRGBAModel.Convert(got.At(2, 2)))
	assert.Equal(t, red, color.NRGBAModel.Convert(got.At(3, 3)))
	assert.Equal(t, black, color.NRGBAModel.Convert(got.At(5, 5)), "pixels outside the rects are untouched")
}

func TestMaskCommand_OutOfBounds(t *testing.T) {
	dir := inProject(t, "mask:\n  sample: [0, 0]\n  rects:\n    - [4, 4, 9, 9]\n")

	path := filepath.Join(dir, "small.png")
	writePNG(t, path, filled(6, 6, red))
	before := readFile(t, path)

	_, _, err := executeCommand("mask", path)
	require.Error(t, err)
	assert.Equal(t, before, readFile(t, path))
}

// ---------------------------------------------------------------------------
// strip-titles
// ---------------------------------------------------------------------------

const titlesProject = `titles:
  dir: slides
  slides: [intro, missing, plain]
`

func TestStripTitlesCommand(t *testing.T) {
	dir := inProject(t, titlesProject)
	writeFile(t, filepath.Join(dir, "slides", "intro", "index.md"), "## Intro\r\nbody\r\n")
	writeFile(t, filepath.Join(dir, "slides", "plain", "index.md"), "body only\n")

	stdout, _, err := executeCommand("--no-color", "strip-titles")
	require.NoError(t, err)

	assert.Equal(t, "body\r\n", readFile(t, filepath.Join(dir, "slides", "intro", "index.md")))
	assert.Equal(t, "body only\n", readFile(t, filepath.Join(dir, "slides", "plain", "index.md")))

	assert.Contains(t, stdout, "OK    intro/index.md")
	assert.Contains(t, stdout, "removed title line: ## Intro")
	assert.Contains(t, stdout, "not found")
	assert.Contains(t, stdout, "first line is not a title")
	assert.Contains(t, stdout, "strip-titles: 3 item(s), 1 ok, 2 skip")
}

func TestStripTitlesCommand_DryRun(t *testing.T) {
	dir := inProject(t, titlesProject)
	doc := filepath.Join(dir, "slides", "intro", "index.md")
	writeFile(t, doc, "## Intro\nbody\n")

	stdout, _, err := executeCommand("--no-color", "strip-titles", "--dry-run", "--diff")
	require.NoError(t, err)

	assert.Equal(t, "## Intro\nbody\n", readFile(t, doc))
	assert.Contains(t, stdout, `[DRY RUN] would remove "## Intro"`)
	assert.Contains(t, stdout, "-## Intro")
}

func TestStripTitlesCommand_RejectsArgs(t *testing.T) {
	inProject(t, "")

	_, _, err := executeCommand("strip-titles", "extra")
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func TestApplyServeFlags(t *testing.T) {
	base := config.DefaultProject().Serve

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, sc config.ServeConfig)
		wantErr string
	}{
		{
			name: "no flags keep config",
			check: func(t *testing.T, sc config.ServeConfig) {
				assert.Equal(t, base, sc)
			},
		},
		{
			name: "overrides",
			args: []string{"--host", "0.0.0.0", "-p", "8080", "--root", "site", "--debounce", "1s", "--no-open"},
			check: func(t *testing.T, sc config.ServeConfig) {
				assert.Equal(t, "0.0.0.0:8080", sc.Addr())
				assert.Equal(t, "site", sc.Root)
				assert.Equal(t, "1s", sc.Debounce)
				assert.False(t, sc.Open)
			},
		},
		{name: "port out of range", args: []string{"--port", "70000"}, wantErr: "out of range"},
		{name: "negative debounce", args: []string{"--debounce", "-1s"}, wantErr: "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &serveOptions{}
			cmd := &cobra.Command{Use: "serve"}
			registerServeFlags(cmd, opts)
			require.NoError(t, cmd.ParseFlags(tt.args))

			sc, err := applyServeFlags(cmd, base, opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			tt.check(t, sc)
		})
	}
}

func TestServeCommand_MissingRoot(t *testing.T) {
	inProject(t, "")

	_, _, err := executeCommand("serve", "--root", "does-not-exist", "--no-open")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestServeCommand_BadWatchRule(t *testing.T) {
	inProject(t, "serve:\n  watch:\n    - pattern: '*.md'\n      action: explode\n")

	_, _, err := executeCommand("serve", "--no-open")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), `unknown action "explode"`)
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func TestConfigCommand_PrintsMergedProject(t *testing.T) {
	inProject(t, "titles:\n  marker: '#'\nserve:\n  port: 8080\n")
	t.Setenv("DECKTOOLS_SERVE_PORT", "9090")
	t.Setenv("DECKTOOLS_PUNCT_EXTENSION", ".qmd")

	stdout, _, err := executeCommand("config")
	require.NoError(t, err)

	var got config.Project
	require.NoError(t, sigsyaml.Unmarshal([]byte(stdout), &got))

	assert.Equal(t, 9090, got.Serve.Port, "env wins over file")
	assert.Equal(t, "#", got.Titles.Marker, "file wins over default")
	assert.Equal(t, ".qmd", got.Punct.Extension)
	assert.Equal(t, "localhost", got.Serve.Host)
	assert.Equal(t, config.DefaultProject().Serve.Watch, got.Serve.Watch)
}

func TestConfigCommand_RejectsArgs(t *testing.T) {
	inProject(t, "")

	_, _, err := executeCommand("config", "extra")
	require.Error(t, err)
}
