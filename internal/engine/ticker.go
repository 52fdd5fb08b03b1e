package engine

import "github.com/jonboulle/clockwork"

// tickSource is the single live periodic driver of the turn clock. Each
// install bumps the engine generation; ticks from older sources are dropped.
type tickSource struct {
	ticker     clockwork.Ticker
	done       chan struct{}
	generation uint64
}

func (e *Engine) installTickSourceLocked() {
	e.releaseTickSourceLocked()
	e.generation++
	ts := &tickSource{
		ticker:     e.clock.NewTicker(e.period),
		done:       make(chan struct{}),
		generation: e.generation,
	}
	e.source = ts
	go e.runTicks(ts)
}

func (e *Engine) releaseTickSourceLocked() {
	if e.source == nil {
		return
	}
	e.source.ticker.Stop()
	close(e.source.done)
	e.source = nil
}

func (e *Engine) runTicks(ts *tickSource) {
	for {
		select {
		case <-ts.done:
			return
		case <-ts.ticker.Chan():
			e.handleTick(ts.generation)
		}
	}
}

func (e *Engine) handleTick(generation uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active || e.source == nil || e.source.generation != generation {
		return
	}
	e.tickLocked()
}
