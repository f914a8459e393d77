package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProject(t *testing.T) {
	p := DefaultProject()
	require.NoError(t, p.Validate())

	assert.Equal(t, "slides", p.Punct.Path)
	assert.Equal(t, ".md", p.Punct.Extension)
	assert.Len(t, p.Alpha.Paths, 2)
	assert.Equal(t, []int{2400, 1450}, p.Mask.Sample)
	assert.Len(t, p.Mask.Rects, 2)
	assert.Equal(t, "##", p.Titles.Marker)
	assert.Len(t, p.Titles.Slides, 12)
	assert.Equal(t, 5555, p.Serve.Port)
	assert.Equal(t, "quarto", p.Serve.Render.Command)
	assert.Equal(t, []string{"render", "deck.qmd"}, p.Serve.Render.Args)
	assert.Len(t, p.Serve.Watch, 7)
}

// ---------------------------------------------------------------------------
// Load: project sections
// ---------------------------------------------------------------------------

func TestLoad_ProjectDefaults(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultProject(), cfg.Project)
}

func TestLoad_ProjectFileOverlaysDefaults(t *testing.T) {
	path := writeTempConfig(t, `
log-level: debug
titles:
  slides: [intro, outro]
serve:
  port: 8080
  watch:
    - pattern: "*.qmd"
      action: rebuild
      policy: coalesced
`)

	cfg, err := Load(nil, path)
	require.NoError(t, err)

	p := cfg.Project
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"intro", "outro"}, p.Titles.Slides)
	assert.Equal(t, "##", p.Titles.Marker, "absent keys keep defaults")
	assert.Equal(t, 8080, p.Serve.Port)
	assert.Equal(t, "localhost", p.Serve.Host)
	assert.Equal(t, DefaultProject().Serve.Render, p.Serve.Render)
	assert.Equal(t, []WatchRuleConfig{{Pattern: "*.qmd", Action: "rebuild", Policy: "coalesced"}}, p.Serve.Watch,
		"a list in the file replaces the default list")
}

func TestLoad_ProjectNestedLists(t *testing.T) {
	path := writeTempConfig(t, "mask:\n  path: logo.png\n  sample: [1, 2]\n  rects: [[0, 0, 3, 3]]\n")

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "logo.png", cfg.Project.Mask.Path)
	assert.Equal(t, []int{1, 2}, cfg.Project.Mask.Sample)
	assert.Equal(t, [][]int{{0, 0, 3, 3}}, cfg.Project.Mask.Rects)
}

func TestLoad_ProjectEnvOverridesDefault(t *testing.T) {
	t.Setenv("DECKTOOLS_TITLES_MARKER", "#")
	t.Setenv("DECKTOOLS_TITLES_SLIDES", "a,b")
	t.Setenv("DECKTOOLS_SERVE_OPEN", "false")
	t.Setenv("DECKTOOLS_SERVE_RENDER_COMMAND", "pandoc")

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	p := cfg.Project
	assert.Equal(t, "#", p.Titles.Marker)
	assert.Equal(t, []string{"a", "b"}, p.Titles.Slides)
	assert.False(t, p.Serve.Open)
	assert.Equal(t, "pandoc", p.Serve.Render.Command)
	assert.Equal(t, DefaultProject().Serve.Render.Args, p.Serve.Render.Args)
}

func TestLoad_ProjectEnvOverridesFile(t *testing.T) {
	t.Setenv("DECKTOOLS_SERVE_PORT", "9090")
	path := writeTempConfig(t, "serve:\n  port: 8080\n  host: 0.0.0.0\n")

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Project.Serve.Port)
	assert.Equal(t, "0.0.0.0", cfg.Project.Serve.Host)
}

func TestLoad_ProjectBadEnvValue(t *testing.T) {
	t.Setenv("DECKTOOLS_SERVE_PORT", "many")

	_, err := Load(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling project config")
}

func TestLoad_ProjectValidated(t *testing.T) {
	path := writeTempConfig(t, "serve:\n  watch:\n    - pattern: '*.md'\n      action: explode\n")

	_, err := Load(nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "explode"`)
}

func TestProject_YAMLRoundTrip(t *testing.T) {
	p := DefaultProject()
	p.Serve.Render.MinVersion = ">= 1.4"

	data, err := p.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "minVersion:")

	path := writeTempConfig(t, string(data))

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, p, cfg.Project)
}

func TestProjectValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Project)
		errMsg string
	}{
		{"bad sample", func(p *Project) { p.Mask.Sample = []int{1} }, "mask.sample"},
		{"short rect", func(p *Project) { p.Mask.Rects = [][]int{{1, 2, 3}} }, "mask.rects[0]"},
		{"reversed rect", func(p *Project) { p.Mask.Rects = [][]int{{5, 5, 1, 1}} }, "corners out of order"},
		{"empty marker", func(p *Project) { p.Titles.Marker = "" }, "titles.marker"},
		{"empty file", func(p *Project) { p.Titles.File = "" }, "titles.file"},
		{"port zero", func(p *Project) { p.Serve.Port = 0 }, "serve.port"},
		{"port too big", func(p *Project) { p.Serve.Port = 70000 }, "serve.port"},
		{"no command", func(p *Project) { p.Serve.Render.Command = "" }, "serve.render.command"},
		{"bad debounce", func(p *Project) { p.Serve.Debounce = "soon" }, "serve.debounce"},
		{"negative debounce", func(p *Project) { p.Serve.Debounce = "-1s" }, "must not be negative"},
		{"empty pattern", func(p *Project) { p.Serve.Watch = []WatchRuleConfig{{Action: "reload"}} }, "pattern is required"},
		{"bad glob", func(p *Project) {
			p.Serve.Watch = []WatchRuleConfig{{Pattern: "slides/[abc", Action: "reload"}}
		}, `serve.watch[0]: pattern "slides/[abc"`},
		{"unknown action", func(p *Project) {
			p.Serve.Watch = []WatchRuleConfig{{Pattern: "*.md", Action: "explode"}}
		}, `serve.watch[0]: unknown action "explode"`},
		{"missing action", func(p *Project) {
			p.Serve.Watch = []WatchRuleConfig{{Pattern: "*.md"}}
		}, `unknown action ""`},
		{"unknown policy", func(p *Project) {
			p.Serve.Watch = []WatchRuleConfig{{Pattern: "*.md", Action: "reload", Policy: "lazy"}}
		}, `serve.watch[0]: unknown policy "lazy"`},
		{"empty extension", func(p *Project) { p.Punct.Extension = "" }, "punct.extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProject()
			tt.mutate(p)
			assert.ErrorContains(t, p.Validate(), tt.errMsg)
		})
	}
}

func TestProjectValidate_EmptyPolicyAllowed(t *testing.T) {
	p := DefaultProject()
	p.Serve.Watch = []WatchRuleConfig{{Pattern: "slides/**/*.md", Action: "rebuild"}}
	assert.NoError(t, p.Validate())
}

func TestServeConfig_Helpers(t *testing.T) {
	s := DefaultProject().Serve

	d, err := s.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, d)
	assert.Equal(t, "localhost:5555", s.Addr())
	assert.Equal(t, "http://localhost:5555/deck.html", s.URL())
}

func TestProjectContext_RoundTrip(t *testing.T) {
	p := DefaultProject()
	p.Serve.Port = 1234

	got := ProjectFromContext(NewProjectContext(context.Background(), p))
	assert.Same(t, p, got)
	assert.Equal(t, DefaultProject(), ProjectFromContext(context.Background()))
}
