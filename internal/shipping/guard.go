package shipping

import "sync"

// guardedState holds the current quote and the sequence used to discard
// stale responses on arrival. There is no hard cancellation of in-flight
// requests; staleness is resolved when the response lands.
type guardedState struct {
	mu    sync.Mutex
	seq   uint64
	quote Quote
}

// begin marks a new estimation as current and returns its sequence. The
// quote flips to loading for the new input; any earlier in-flight request
// is now stale by definition.
func (g *guardedState) begin(input Input) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.quote = Quote{State: StateLoading, Input: input}
	return g.seq
}

// apply installs the quote if seq is still current. It returns whether the
// quote was applied and the state now current either way.
func (g *guardedState) apply(seq uint64, quote Quote) (bool, Quote) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.seq {
		return false, g.quote
	}
	g.quote = quote
	return true, g.quote
}

func (g *guardedState) current() Quote {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.quote
}
