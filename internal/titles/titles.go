// Package titles removes the leading heading line from slide documents.
package titles

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/output"
	"github.com/hupe1980/decktools/internal/report"
	"github.com/hupe1980/decktools/internal/textdiff"
)

// Skip reasons.
const (
	ReasonNotFound = "not found"
	ReasonNoTitle  = "first line is not a title"
)

// Spec lists the slide documents to process.
type Spec struct {
	// Dir holds one sub-directory per slide.
	Dir string

	// File is the document name inside each slide directory.
	File string

	// Marker is the prefix a title line starts with.
	Marker string

	// Slides are processed in order.
	Slides []string
}

// FromConfig builds a Spec from the configured section.
func FromConfig(cfg config.TitlesConfig) Spec {
	return Spec{Dir: cfg.Dir, File: cfg.File, Marker: cfg.Marker, Slides: cfg.Slides}
}

// Path returns the document path of slide.
func (s Spec) Path(slide string) string {
	return filepath.Join(s.Dir, slide, s.File)
}

// Options controls a stripping run.
type Options struct {
	DryRun bool
	Diff   bool

	// Logger receives file writer diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Outcome is the result of stripping one document.
type Outcome struct {
	Path     string
	Stripped bool
	Reason   string
	Title    string
	Diff     *textdiff.Result
}

// StripFile removes the first line of the document at path when it starts
// with marker. The rest of the document, including its line endings, is
// kept byte for byte. A missing file is reported through Reason, not as an
// error.
func StripFile(path, marker string, opts Options) (*Outcome, error) {
	out := &Outcome{Path: path}

	data, err := os.ReadFile(path) //nolint:gosec // configured slide path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			out.Reason = ReasonNotFound
			return out, nil
		}

		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content := string(data)
	if content == "" || !strings.HasPrefix(content, marker) {
		out.Reason = ReasonNoTitle
		return out, nil
	}

	var rest string
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		out.Title, rest = content[:i+1], content[i+1:]
	} else {
		out.Title = content
	}

	out.Title = strings.TrimRight(out.Title, "\r\n")
	out.Stripped = true

	if opts.Diff {
		d, err := textdiff.Compute(path, content, rest)
		if err != nil {
			return nil, err
		}

		out.Diff = d
	}

	if opts.DryRun {
		return out, nil
	}

	if err := output.WriteFile(path, []byte(rest), output.WithLogger(opts.Logger)); err != nil {
		return nil, err
	}

	return out, nil
}

// Run strips every slide of spec in order. Every slide yields exactly one
// item; failures are recorded and the remaining slides are still processed.
func Run(spec Spec, opts Options) (*report.Result, []*Outcome) {
	result := report.New("strip-titles")

	var outcomes []*Outcome

	for _, slide := range spec.Slides {
		path := spec.Path(slide)
		subject := filepath.ToSlash(filepath.Join(slide, spec.File))

		o, err := StripFile(path, spec.Marker, opts)
		if err != nil {
			result.Fail(subject, err)
			continue
		}

		outcomes = append(outcomes, o)

		switch {
		case o.Reason == ReasonNotFound:
			result.Skip(subject, ReasonNotFound+": "+path)
		case !o.Stripped:
			result.Skip(subject, o.Reason)
		default:
			result.OK(subject, "removed title line: "+o.Title)
		}
	}

	return result, outcomes
}
