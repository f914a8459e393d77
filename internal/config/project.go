package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/viper"
	sigsyaml "sigs.k8s.io/yaml"
)

// Project holds the per-tool sections of the config file. Every tool
// receives its section explicitly instead of embedding paths and lists, so
// the tools can run against synthetic fixtures in tests.
type Project struct {
	Punct  PunctConfig  `mapstructure:"punct" json:"punct"`
	Alpha  AlphaConfig  `mapstructure:"alpha" json:"alpha"`
	Mask   MaskConfig   `mapstructure:"mask" json:"mask"`
	Titles TitlesConfig `mapstructure:"titles" json:"titles"`
	Serve  ServeConfig  `mapstructure:"serve" json:"serve"`
}

// PunctConfig configures the punctuation normalizer.
type PunctConfig struct {
	// Path is the default file or directory to process.
	Path string `mapstructure:"path" json:"path"`

	// Extension selects files when Path is a directory.
	Extension string `mapstructure:"extension" json:"extension"`
}

// AlphaConfig configures the transparency inspector.
type AlphaConfig struct {
	Paths []string `mapstructure:"paths" json:"paths"`
}

// MaskConfig configures the region masker. Sample is an [x, y] pair and each
// rectangle is [x0, y0, x1, y1] with inclusive corners.
type MaskConfig struct {
	Path   string  `mapstructure:"path" json:"path"`
	Sample []int   `mapstructure:"sample" json:"sample"`
	Rects  [][]int `mapstructure:"rects" json:"rects"`
}

// TitlesConfig configures the title-line stripper.
type TitlesConfig struct {
	// Dir holds one sub-directory per slide id.
	Dir string `mapstructure:"dir" json:"dir"`

	// File is the document name inside each slide directory.
	File string `mapstructure:"file" json:"file"`

	// Marker is the heading prefix identifying a title line.
	Marker string `mapstructure:"marker" json:"marker"`

	// Slides lists the slide ids to process, in order.
	Slides []string `mapstructure:"slides" json:"slides"`
}

// ServeConfig configures the rebuild-and-reload server.
type ServeConfig struct {
	Host     string            `mapstructure:"host" json:"host"`
	Port     int               `mapstructure:"port" json:"port"`
	Root     string            `mapstructure:"root" json:"root"`
	Page     string            `mapstructure:"page" json:"page"`
	Debounce string            `mapstructure:"debounce" json:"debounce"`
	Open     bool              `mapstructure:"open" json:"open"`
	Render   RenderConfig      `mapstructure:"render" json:"render"`
	Watch    []WatchRuleConfig `mapstructure:"watch" json:"watch"`
}

// RenderConfig describes the external render command.
type RenderConfig struct {
	Command string   `mapstructure:"command" json:"command"`
	Args    []string `mapstructure:"args" json:"args"`

	// MinVersion is an optional semver constraint checked against
	// "<command> --version" at startup.
	MinVersion string `mapstructure:"minversion" json:"minVersion,omitempty"`
}

// WatchRuleConfig is the serialized form of a watch rule. An empty Policy
// means coalesced.
type WatchRuleConfig struct {
	Pattern string `mapstructure:"pattern" json:"pattern"`

	// Action is "rebuild" or "reload".
	Action string `mapstructure:"action" json:"action"`

	// Policy is "coalesced", "immediate" or empty.
	Policy string `mapstructure:"policy" json:"policy"`
}

// DefaultProject returns the project layout of the slide deck the tools were
// written for.
func DefaultProject() *Project {
	return &Project{
		Punct: PunctConfig{
			Path:      "slides",
			Extension: ".md",
		},
		Alpha: AlphaConfig{
			Paths: []string{
				"slides/moravecs-paradox/assets/robot-chess-v3.png",
				"slides/moravecs-paradox/assets/robot-sock-v3.png",
			},
		},
		Mask: MaskConfig{
			Path:   "assets/images/multi-scale.png",
			Sample: []int{2400, 1450},
			Rects: [][]int{
				{2480, 1350, 2720, 1520}, // star logo
				{2650, 1380, 2816, 1500}, // arrow on the far right
			},
		},
		Titles: TitlesConfig{
			Dir:    "slides",
			File:   "index.md",
			Marker: "##",
			Slides: []string{
				"ai-frontier-moravecs-paradox",
				"robot-chatgpt-moment",
				"fold-laundry-demos",
				"pomdp-partial-observability",
				"big-world-hypothesis",
				"vla-generalization-illusion",
				"vla-data-illusion",
				"vla-verticalized-llm",
				"token-world-vs-big-world",
				"embodiment-kitten-experiment",
				"crystallized-to-fluid-intelligence",
				"ilya-timeline",
			},
		},
		Serve: ServeConfig{
			Host:     "localhost",
			Port:     5555,
			Root:     ".",
			Page:     "deck.html",
			Debounce: "300ms",
			Open:     true,
			Render: RenderConfig{
				Command: "quarto",
				Args:    []string{"render", "deck.qmd"},
			},
			Watch: []WatchRuleConfig{
				{Pattern: "deck.qmd", Action: "rebuild", Policy: "coalesced"},
				{Pattern: "slides/**/*.md", Action: "rebuild", Policy: "coalesced"},
				{Pattern: "slides/*/assets/*", Action: "rebuild", Policy: "coalesced"},
				{Pattern: "styles/_*.scss", Action: "rebuild", Policy: "coalesced"},
				{Pattern: "deck.html", Action: "reload", Policy: "immediate"},
				{Pattern: "deck_files/**", Action: "reload", Policy: "immediate"},
				{Pattern: "assets/*", Action: "reload", Policy: "immediate"},
			},
		},
	}
}

// setProjectDefaults registers every leaf of p as a viper default, so
// that environment variables can override single keys and file sections
// only replace the keys they name.
func setProjectDefaults(v *viper.Viper, p *Project) {
	v.SetDefault("punct.path", p.Punct.Path)
	v.SetDefault("punct.extension", p.Punct.Extension)

	v.SetDefault("alpha.paths", p.Alpha.Paths)

	v.SetDefault("mask.path", p.Mask.Path)
	v.SetDefault("mask.sample", p.Mask.Sample)
	v.SetDefault("mask.rects", p.Mask.Rects)

	v.SetDefault("titles.dir", p.Titles.Dir)
	v.SetDefault("titles.file", p.Titles.File)
	v.SetDefault("titles.marker", p.Titles.Marker)
	v.SetDefault("titles.slides", p.Titles.Slides)

	v.SetDefault("serve.host", p.Serve.Host)
	v.SetDefault("serve.port", p.Serve.Port)
	v.SetDefault("serve.root", p.Serve.Root)
	v.SetDefault("serve.page", p.Serve.Page)
	v.SetDefault("serve.debounce", p.Serve.Debounce)
	v.SetDefault("serve.open", p.Serve.Open)
	v.SetDefault("serve.render.command", p.Serve.Render.Command)
	v.SetDefault("serve.render.args", p.Serve.Render.Args)
	v.SetDefault("serve.render.minversion", p.Serve.Render.MinVersion)
	v.SetDefault("serve.watch", p.Serve.Watch)
}

// loadProject decodes the project sections of v and validates them.
func loadProject(v *viper.Viper) (*Project, error) {
	var p Project
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("unmarshaling project config: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// YAML renders p the way it would appear in a config file.
func (p *Project) YAML() ([]byte, error) {
	data, err := sigsyaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling project config: %w", err)
	}

	return data, nil
}

// Validate checks the structural correctness of every section.
func (p *Project) Validate() error {
	var errs []error

	if p.Punct.Extension == "" {
		errs = append(errs, errors.New("punct.extension must not be empty"))
	}

	if len(p.Mask.Sample) != 2 {
		errs = append(errs, fmt.Errorf("mask.sample: want [x, y], got %d values", len(p.Mask.Sample)))
	}

	for i, r := range p.Mask.Rects {
		if len(r) != 4 {
			errs = append(errs, fmt.Errorf("mask.rects[%d]: want [x0, y0, x1, y1], got %d values", i, len(r)))
			continue
		}

		if r[0] > r[2] || r[1] > r[3] {
			errs = append(errs, fmt.Errorf("mask.rects[%d]: corners out of order", i))
		}
	}

	if p.Titles.Marker == "" {
		errs = append(errs, errors.New("titles.marker must not be empty"))
	}

	if p.Titles.File == "" {
		errs = append(errs, errors.New("titles.file must not be empty"))
	}

	if p.Serve.Port < 1 || p.Serve.Port > 65535 {
		errs = append(errs, fmt.Errorf("serve.port %d out of range 1-65535", p.Serve.Port))
	}

	if p.Serve.Render.Command == "" {
		errs = append(errs, errors.New("serve.render.command must not be empty"))
	}

	if _, err := p.Serve.DebounceDuration(); err != nil {
		errs = append(errs, err)
	}

	for i, w := range p.Serve.Watch {
		errs = append(errs, w.validate(i)...)
	}

	return errors.Join(errs...)
}

func (w WatchRuleConfig) validate(i int) []error {
	var errs []error

	if w.Pattern == "" {
		errs = append(errs, fmt.Errorf("serve.watch[%d]: pattern is required", i))
	} else if _, err := glob.Compile(w.Pattern, '/'); err != nil {
		errs = append(errs, fmt.Errorf("serve.watch[%d]: pattern %q: %w", i, w.Pattern, err))
	}

	switch w.Action {
	case "rebuild", "reload":
	default:
		errs = append(errs, fmt.Errorf("serve.watch[%d]: unknown action %q: must be one of rebuild, reload", i, w.Action))
	}

	switch w.Policy {
	case "", "coalesced", "immediate":
	default:
		errs = append(errs, fmt.Errorf("serve.watch[%d]: unknown policy %q: must be one of coalesced, immediate", i, w.Policy))
	}

	return errs
}

// DebounceDuration parses Debounce.
func (s ServeConfig) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(s.Debounce)
	if err != nil {
		return 0, fmt.Errorf("serve.debounce: %w", err)
	}

	if d < 0 {
		return 0, fmt.Errorf("serve.debounce: must not be negative, got %s", d)
	}

	return d, nil
}

// Addr returns the host:port listen address.
func (s ServeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// URL returns the address of the served page.
func (s ServeConfig) URL() string {
	return fmt.Sprintf("http://%s/%s", s.Addr(), s.Page)
}
