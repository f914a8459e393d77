package watch

import (
	"log/slog"
	"time"
)

// Handler performs an action for the path that triggered it.
type Handler func(path string)

// Dispatcher routes changed paths to action handlers according to an
// ordered rule list.
type Dispatcher struct {
	rules      []Rule
	handlers   map[Action]Handler
	debouncers map[Action]*Debouncer
	logger     *slog.Logger
}

// NewDispatcher returns a dispatcher for rules. Coalesced rules share one
// debouncer per action with the given quiet interval. Actions without a
// handler are ignored.
func NewDispatcher(rules []Rule, interval time.Duration, handlers map[Action]Handler, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		rules:      rules,
		handlers:   handlers,
		debouncers: make(map[Action]*Debouncer),
		logger:     logger,
	}

	for action, h := range handlers {
		deb := NewDebouncer(interval, h)
		deb.logger = logger
		d.debouncers[action] = deb
	}

	return d
}

// Dispatch handles one changed path, relative to the watched root. It
// returns the matching rule, or false when no rule matched.
func (d *Dispatcher) Dispatch(rel string) (Rule, bool) {
	rule, ok := FirstMatch(d.rules, rel)
	if !ok {
		d.logger.Debug("ignoring change", slog.String("path", rel))
		return Rule{}, false
	}

	h, ok := d.handlers[rule.Action]
	if !ok {
		return rule, true
	}

	d.logger.Debug("change matched",
		slog.String("path", rel),
		slog.String("pattern", rule.Pattern),
		slog.String("action", string(rule.Action)),
		slog.String("policy", string(rule.Policy)),
	)

	switch rule.Policy {
	case PolicyImmediate:
		h(rel)
	default:
		d.debouncers[rule.Action].Trigger(rel)
	}

	return rule, true
}

// Stop cancels all pending coalesced actions.
func (d *Dispatcher) Stop() {
	for _, deb := range d.debouncers {
		deb.Stop()
	}
}
