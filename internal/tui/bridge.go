package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/crongame/internal/engine"
)

// Bridge queues engine events for the Bubble Tea loop. HandleEvent never
// blocks, so the engine may emit while the UI is inside Update.
type Bridge struct {
	mu     sync.Mutex
	queue  []engine.Event
	notify chan struct{}
}

var _ engine.Listener = (*Bridge)(nil)

// NewBridge returns an empty Bridge.
func NewBridge() *Bridge {
	return &Bridge{notify: make(chan struct{}, 1)}
}

// HandleEvent implements engine.Listener.
func (b *Bridge) HandleEvent(ev engine.Event) {
	b.mu.Lock()
	b.queue = append(b.queue, ev)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

type eventsMsg []engine.Event

// wait returns a command that resolves with the next batch of events.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		<-b.notify
		return eventsMsg(b.drain())
	}
}

func (b *Bridge) drain() []engine.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.queue
	b.queue = nil
	return out
}
