// Package punct converts full-width (Chinese) punctuation to ASCII in text
// documents.
package punct

import (
	"fmt"
	"strings"
)

// Rule replaces every occurrence of one glyph with an ASCII string.
type Rule struct {
	From rune
	To   string
}

// Mapping is an ordered list of rules applied one after another.
type Mapping []Rule

// DefaultMapping is the glyph table used for slide sources.
var DefaultMapping = Mapping{
	{'，', ","},
	{'。', "."},
	{'：', ":"},
	{'；', ";"},
	{'！', "!"},
	{'？', "?"},
	{'“', `"`},
	{'”', `"`},
	{'‘', "'"},
	{'’', "'"},
	{'（', "("},
	{'）', ")"},
	{'【', "["},
	{'】', "]"},
	{'《', "<"},
	{'》', ">"},
	{'、', ","},
	{'～', "~"},
	{'…', "..."},
}

// Change describes the replacements of one rule within a document.
type Change struct {
	From  rune   `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Count int    `json:"count" yaml:"count"`
}

// String formats the change as "， -> , (3x)".
func (c Change) String() string {
	return fmt.Sprintf("%c -> %s (%dx)", c.From, c.To, c.Count)
}

// Convert applies every rule of m to text in order and returns the result
// together with one Change per rule that matched. Replacement text is never
// re-scanned by the rule that produced it.
func (m Mapping) Convert(text string) (string, []Change) {
	var changes []Change

	for _, r := range m {
		from := string(r.From)

		n := strings.Count(text, from)
		if n == 0 {
			continue
		}

		changes = append(changes, Change{From: r.From, To: r.To, Count: n})
		text = strings.ReplaceAll(text, from, r.To)
	}

	return text, changes
}

// Convert applies DefaultMapping to text.
func Convert(text string) (string, []Change) {
	return DefaultMapping.Convert(text)
}
