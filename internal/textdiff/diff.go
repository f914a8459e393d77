// Package textdiff renders unified diffs of document rewrites so dry runs
// can show exactly what a tool would change.
package textdiff

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Result holds a unified diff between two versions of a document.
type Result struct {
	Unified        string
	HasDifferences bool
}

// Compute returns the unified diff turning oldDoc into newDoc. Both sides
// are labelled with path, suffixed "(original)" and "(converted)".
func Compute(path, oldDoc, newDoc string) (*Result, error) {
	diff := difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: path + " (original)",
		ToFile:   path + " (converted)",
		Context:  2,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, fmt.Errorf("computing diff for %s: %w", path, err)
	}

	return &Result{Unified: unified, HasDifferences: unified != ""}, nil
}

// Write prints the diff to w, colouring removed and added lines unless
// noColor is set.
func Write(w io.Writer, result *Result, noColor bool) {
	if !result.HasDifferences {
		return
	}

	var (
		header = color.New(color.Bold)
		hunk   = color.New(color.FgCyan)
		del    = color.New(color.FgRed)
		add    = color.New(color.FgGreen)
	)

	if noColor {
		for _, c := range []*color.Color{header, hunk, del, add} {
			c.DisableColor()
		}
	}

	for _, line := range strings.Split(strings.TrimSuffix(result.Unified, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			_, _ = header.Fprintln(w, line)
		case strings.HasPrefix(line, "@@"):
			_, _ = hunk.Fprintln(w, line)
		case strings.HasPrefix(line, "-"):
			_, _ = del.Fprintln(w, line)
		case strings.HasPrefix(line, "+"):
			_, _ = add.Fprintln(w, line)
		default:
			_, _ = fmt.Fprintln(w, line)
		}
	}
}

// splitLines splits s into lines that keep their trailing newline, as
// difflib expects.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
