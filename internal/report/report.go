// Package report collects per-item outcomes of the batch tools and renders
// them as a table, JSON, or YAML.
//
// Batch tools never stop at the first failing item. Instead every item ends
// up in a [Result] with one of three statuses, so callers and tests can
// inspect what happened without scraping printed text.
package report

import (
	"fmt"
	"strings"
)

// Status is the outcome of a single item.
type Status string

// Item statuses.
const (
	StatusOK    Status = "ok"
	StatusSkip  Status = "skip"
	StatusError Status = "error"
)

// Item is the outcome of processing one file, image, or slide.
type Item struct {
	Subject string   `json:"subject" yaml:"subject"`
	Status  Status   `json:"status" yaml:"status"`
	Reason  string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Result is the ordered list of item outcomes of one tool invocation.
type Result struct {
	Tool  string `json:"tool" yaml:"tool"`
	Items []Item `json:"items" yaml:"items"`
}

// New returns an empty result for the named tool.
func New(tool string) *Result {
	return &Result{Tool: tool, Items: []Item{}}
}

// OK records a successful item.
func (r *Result) OK(subject string, details ...string) {
	r.Items = append(r.Items, Item{Subject: subject, Status: StatusOK, Details: details})
}

// Skip records an item that was left untouched.
func (r *Result) Skip(subject, reason string) {
	r.Items = append(r.Items, Item{Subject: subject, Status: StatusSkip, Reason: reason})
}

// Fail records an item that could not be processed.
func (r *Result) Fail(subject string, err error) {
	r.Items = append(r.Items, Item{Subject: subject, Status: StatusError, Reason: err.Error()})
}

// Count returns the number of items with the given status.
func (r *Result) Count(s Status) int {
	n := 0

	for _, it := range r.Items {
		if it.Status == s {
			n++
		}
	}

	return n
}

// HasErrors reports whether any item failed.
func (r *Result) HasErrors() bool {
	return r.Count(StatusError) > 0
}

// Summary returns a one-line count of items per status.
func (r *Result) Summary() string {
	parts := make([]string, 0, 3)

	for _, s := range []Status{StatusOK, StatusSkip, StatusError} {
		if n := r.Count(s); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%s: nothing to do", r.Tool)
	}

	return fmt.Sprintf("%s: %d item(s), %s", r.Tool, len(r.Items), strings.Join(parts, ", "))
}
