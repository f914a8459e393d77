package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Formatter writes a result to a writer.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// NewFormatter returns a formatter for the given format name.
// Supported: "table" (default), "json", "yaml".
func NewFormatter(format string, noColor bool) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return &TableFormatter{NoColor: noColor}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "yaml", "yml":
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q: use table, json, or yaml", format)
	}
}

// --- Table Formatter ---

// TableFormatter writes one status line per item followed by its details,
// then a summary line.
type TableFormatter struct {
	NoColor bool
}

// Format writes the result as human-readable lines.
func (f *TableFormatter) Format(w io.Writer, result *Result) error {
	for _, it := range result.Items {
		status := f.paint(it.Status, fmt.Sprintf("%-5s", strings.ToUpper(string(it.Status))))

		line := fmt.Sprintf("%s %s", status, it.Subject)
		if it.Reason != "" {
			line += " - " + it.Reason
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		for _, d := range it.Details {
			if _, err := fmt.Fprintf(w, "      %s\n", d); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w, result.Summary())

	return err
}

func (f *TableFormatter) paint(s Status, text string) string {
	var c *color.Color

	switch s {
	case StatusOK:
		c = color.New(color.FgGreen)
	case StatusSkip:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed, color.Bold)
	}

	if f.NoColor {
		c.DisableColor()
	}

	return c.Sprint(text)
}

// --- JSON Formatter ---

// JSONFormatter writes the result as indented JSON.
type JSONFormatter struct{}

// Format writes the result as JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(result)
}

// --- YAML Formatter ---

// YAMLFormatter writes the result as YAML.
type YAMLFormatter struct{}

// Format writes the result as YAML.
func (f *YAMLFormatter) Format(w io.Writer, result *Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}

	return enc.Close()
}
