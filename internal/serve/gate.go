package serve

import (
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"
)

// reloadGate holds reload notifications back while a render is in flight.
// Held notifications are released when the render succeeds and dropped when
// it fails, so viewers only ever reload onto completed output.
type reloadGate struct {
	notify func(path string) int

	mu        sync.Mutex
	rendering bool
	held      sets.Set[string]
}

func newReloadGate(notify func(path string) int) *reloadGate {
	return &reloadGate{notify: notify, held: sets.New[string]()}
}

func (g *reloadGate) begin() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rendering = true
	g.held = sets.New[string]()
}

// end closes the render window and returns the number of held paths
// released. Released paths are announced with a single notification.
func (g *reloadGate) end(ok bool) int {
	g.mu.Lock()
	held := g.held
	g.rendering = false
	g.held = sets.New[string]()
	g.mu.Unlock()

	if !ok || held.Len() == 0 {
		return 0
	}

	g.notify(sets.List(held)[0])

	return held.Len()
}

// reload notifies viewers about path now, or later if a render is running.
func (g *reloadGate) reload(path string) {
	g.mu.Lock()
	if g.rendering {
		g.held.Insert(path)
		g.mu.Unlock()

		return
	}
	g.mu.Unlock()

	g.notify(path)
}
