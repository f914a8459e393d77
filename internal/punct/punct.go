package punct

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/decktools/internal/output"
	"github.com/hupe1980/decktools/internal/report"
	"github.com/hupe1980/decktools/internal/textdiff"
)

// ErrNotFound is returned when the target path does not exist.
var ErrNotFound = errors.New("path not found")

// Options controls a conversion run.
type Options struct {
	// DryRun reports changes without writing files.
	DryRun bool

	// Diff attaches a unified diff of each changed file to its result.
	Diff bool

	// Extension selects files when the target is a directory.
	Extension string

	// Mapping overrides DefaultMapping when non-nil.
	Mapping Mapping

	// Logger receives file writer diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (o Options) mapping() Mapping {
	if o.Mapping != nil {
		return o.Mapping
	}

	return DefaultMapping
}

// FileResult is the outcome of converting one file.
type FileResult struct {
	Path    string
	Changes []Change
	Diff    *textdiff.Result
	Written bool
}

// Descriptors returns the human-readable change lines.
func (r *FileResult) Descriptors() []string {
	out := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		out = append(out, c.String())
	}

	return out
}

// CollectFiles resolves target to the list of files to convert: a file is
// returned as is; a directory yields every file below it whose name ends in
// ext, sorted.
func CollectFiles(target, ext string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
		}

		return nil, fmt.Errorf("inspecting %s: %w", target, err)
	}

	if !info.IsDir() {
		return []string{target}, nil
	}

	var files []string

	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !d.IsDir() && strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", target, err)
	}

	sort.Strings(files)

	return files, nil
}

// ConvertFile converts one file. The file is rewritten as a whole only when
// at least one glyph matched and opts.DryRun is false.
func ConvertFile(path string, opts Options) (*FileResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-selected input
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	original := string(data)
	converted, changes := opts.mapping().Convert(original)

	res := &FileResult{Path: path, Changes: changes}
	if len(changes) == 0 {
		return res, nil
	}

	if opts.Diff {
		d, err := textdiff.Compute(path, original, converted)
		if err != nil {
			return nil, err
		}

		res.Diff = d
	}

	if opts.DryRun {
		return res, nil
	}

	if err := output.WriteFile(path, []byte(converted), output.WithLogger(opts.Logger)); err != nil {
		return nil, err
	}

	res.Written = true

	return res, nil
}

// Run converts every file under target. Each changed file becomes an ok
// item whose details are the change descriptors; unchanged files are not
// listed. The first read or write error aborts the run and is returned
// together with the items processed so far.
func Run(target string, opts Options) (*report.Result, []*FileResult, error) {
	result := report.New("punct")

	files, err := CollectFiles(target, opts.Extension)
	if err != nil {
		return result, nil, err
	}

	var changed []*FileResult

	for _, f := range files {
		fr, err := ConvertFile(f, opts)
		if err != nil {
			return result, changed, err
		}

		if len(fr.Changes) == 0 {
			continue
		}

		changed = append(changed, fr)
		result.OK(f, fr.Descriptors()...)
	}

	return result, changed, nil
}
