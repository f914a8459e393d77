package watch

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/hupe1980/decktools/internal/config"
)

// Action is what a matching change causes.
type Action string

// Actions.
const (
	// ActionRebuild schedules a render of the sources.
	ActionRebuild Action = "rebuild"

	// ActionReload tells connected viewers to reload.
	ActionReload Action = "reload"
)

// Policy is the scheduling discipline of a rule.
type Policy string

// Policies.
const (
	// PolicyCoalesced collapses bursts of changes into one action after a
	// quiet period.
	PolicyCoalesced Policy = "coalesced"

	// PolicyImmediate runs the action for every change with no delay.
	PolicyImmediate Policy = "immediate"
)

// Rule maps a path pattern to an action and a policy.
type Rule struct {
	Pattern string
	Action  Action
	Policy  Policy

	g glob.Glob
}

// NewRule compiles pattern. Patterns are slash-separated and relative to
// the watched root: "*" stays within one path segment, "**" spans
// segments.
func NewRule(pattern string, action Action, policy Policy) (Rule, error) {
	if pattern == "" {
		return Rule{}, errors.New("empty pattern")
	}

	switch action {
	case ActionRebuild, ActionReload:
	default:
		return Rule{}, fmt.Errorf("unknown action %q: must be one of rebuild, reload", action)
	}

	switch policy {
	case PolicyCoalesced, PolicyImmediate:
	default:
		return Rule{}, fmt.Errorf("unknown policy %q: must be one of coalesced, immediate", policy)
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return Rule{}, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}

	return Rule{Pattern: pattern, Action: action, Policy: policy, g: g}, nil
}

// ParseRules compiles the configured rules in order.
func ParseRules(cfgs []config.WatchRuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))

	for i, c := range cfgs {
		policy := Policy(c.Policy)
		if policy == "" {
			policy = PolicyCoalesced
		}

		r, err := NewRule(c.Pattern, Action(c.Action), policy)
		if err != nil {
			return nil, fmt.Errorf("watch rule %d: %w", i, err)
		}

		rules = append(rules, r)
	}

	return rules, nil
}

// Match reports whether rel, a path relative to the watched root, matches
// the rule.
func (r Rule) Match(rel string) bool {
	return r.g != nil && r.g.Match(normalize(rel))
}

// String implements fmt.Stringer.
func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s (%s)", r.Pattern, r.Action, r.Policy)
}

// FirstMatch returns the first rule matching rel.
func FirstMatch(rules []Rule, rel string) (Rule, bool) {
	for _, r := range rules {
		if r.Match(rel) {
			return r, true
		}
	}

	return Rule{}, false
}

func normalize(rel string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "./")
}
