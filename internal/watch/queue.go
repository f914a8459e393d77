package watch

import (
	"context"
)

// Queue serialises renders. It holds at most one pending request; further
// requests made while one is pending are merged into it. A request made
// while a render is running leads to exactly one more render after it.
type Queue struct {
	pending chan string
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{pending: make(chan string, 1)}
}

// Request asks for a render triggered by reason. It never blocks and
// reports whether a new pending slot was taken; false means the request
// was merged into an already pending one.
func (q *Queue) Request(reason string) bool {
	select {
	case q.pending <- reason:
		return true
	default:
		return false
	}
}

// Run calls fn for each pending request, one at a time, until ctx is done.
// A running fn is never interrupted.
func (q *Queue) Run(ctx context.Context, fn func(ctx context.Context, reason string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-q.pending:
			fn(ctx, reason)
		}
	}
}
