package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/crongame/internal/model"
)

// EventType names an engine event.
type EventType string

// Event types emitted by the engine.
const (
	EventSessionStarted      EventType = "SessionStarted"
	EventActivePlayerChanged EventType = "ActivePlayerChanged"
	EventClockUpdated        EventType = "ClockUpdated"
	EventPausedChanged       EventType = "PausedChanged"
	EventNearEnd             EventType = "NearEnd"
	EventTimeExhausted       EventType = "TimeExhausted"
	EventSessionEnded        EventType = "SessionEnded"
)

// Event is delivered to the Listener. Payload holds one of the *Payload
// types below, or nil for NearEnd, TimeExhausted and SessionEnded.
type Event struct {
	Type      EventType
	SessionID uuid.UUID
	At        time.Time
	Payload   any
}

// SessionStartedPayload carries the config a session runs with.
type SessionStartedPayload struct {
	Config model.SessionConfig
}

// ActivePlayerPayload names the player whose turn it is now.
type ActivePlayerPayload struct {
	Index  int
	Player model.Player
}

// ClockPayload is the display update sent after every clock change.
type ClockPayload struct {
	Value    int
	Duration int
	Mode     model.Mode
	// Progress is Value/Duration clamped to [0,1].
	Progress   float64
	EndingSoon bool
}

// PausedPayload reports the new pause state.
type PausedPayload struct {
	Paused bool
}

// Listener receives engine events. It is called with the engine lock held,
// so it must not call back into the Engine; hand events off instead.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// HandleEvent implements Listener.
func (f ListenerFunc) HandleEvent(ev Event) {
	f(ev)
}

type nopListener struct{}

func (nopListener) HandleEvent(Event) {}
