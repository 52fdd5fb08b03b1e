// Package engine implements the turn timer state machine: whose turn it is,
// the turn clock, pause/resume, rotation to the next player and the
// near-end and time-exhausted signals.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/crongame/internal/model"
	"github.com/verte-zerg/crongame/internal/platform"
	"github.com/verte-zerg/crongame/internal/store"
)

// DefaultTickPeriod is the length of one clock unit.
const DefaultTickPeriod = time.Second

// VibrateDuration is the haptic pulse requested when the turn passes.
const VibrateDuration = 200 * time.Millisecond

// State is the coarse engine state.
type State int

// Engine states.
const (
	StateIdle State = iota
	StateRunning
	StatePaused
	// StateStopped means the turn clock hit its boundary and waits for a command.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	SessionID   uuid.UUID
	State       State
	ActiveIndex int
	Player      model.Player
	Value       int
	Remaining   int
	Paused      bool
	Running     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock ticks are scheduled on. Tests pass a clockwork.FakeClock.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTickPeriod overrides DefaultTickPeriod.
func WithTickPeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.period = d
		}
	}
}

// WithListener sets the receiver of engine events.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listener = l
		}
	}
}

// WithAffordances sets the platform side effects the engine requests.
func WithAffordances(a platform.Affordances) Option {
	return func(e *Engine) {
		if a != nil {
			e.aff = a
		}
	}
}

// WithSettings makes StartSession persist each config it starts with.
func WithSettings(s store.Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// WithPolicy sets the near-end threshold and count-up cap. Negative
// thresholds are treated as zero.
func WithPolicy(p model.Policy) Option {
	return func(e *Engine) {
		if p.NearEndThreshold < 0 {
			p.NearEndThreshold = 0
		}
		e.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine owns the state of one session at a time. It is safe for concurrent use.
type Engine struct {
	clock    clockwork.Clock
	period   time.Duration
	listener Listener
	aff      platform.Affordances
	settings store.Settings
	policy   model.Policy
	logger   zerolog.Logger

	mu           sync.Mutex
	active       bool
	sessionID    uuid.UUID
	cfg          model.SessionConfig
	index        int
	value        int
	paused       bool
	stopped      bool
	nearEndFired bool
	source       *tickSource
	generation   uint64
}

// New returns an idle Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:    clockwork.NewRealClock(),
		period:   DefaultTickPeriod,
		listener: nopListener{},
		aff:      platform.Nop{},
		policy:   model.DefaultPolicy(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the policy the engine runs with.
func (e *Engine) Policy() model.Policy {
	return e.policy
}

// StartSession validates cfg and starts the first player's turn. An invalid
// config returns a *model.ValidationError and leaves the engine untouched.
// A running session is ended first.
func (e *Engine) StartSession(ctx context.Context, cfg model.SessionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.Clone()
	if e.settings != nil {
		if err := store.SaveConfig(ctx, e.settings, cfg); err != nil {
			e.logger.Warn().Err(err).Msg("failed to persist session config")
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		e.endLocked()
	}
	e.active = true
	e.sessionID = uuid.New()
	e.cfg = cfg
	e.index = 0
	e.paused = false
	e.request("acquire wake lock", e.aff.AcquireWakeLock)

	e.logger.Info().
		Str("session_id", e.sessionID.String()).
		Int("players", len(cfg.Players)).
		Int("duration", cfg.Settings.DurationSeconds).
		Str("mode", cfg.Settings.Mode.String()).
		Msg("session started")

	e.emitLocked(EventSessionStarted, SessionStartedPayload{Config: cfg.Clone()})
	e.emitActivePlayerLocked()
	e.startTurnLocked()
	return nil
}

// RestartTurn resets the clock of the active player's turn and clears the pause.
func (e *Engine) RestartTurn() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return &PreconditionError{Op: "restart turn"}
	}
	e.logger.Debug().Int("player", e.index).Msg("turn restarted")
	e.startTurnLocked()
	return nil
}

// NextPlayer passes the turn to the next player in roster order and starts
// a fresh turn. With a single player it only restarts the turn.
func (e *Engine) NextPlayer() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return &PreconditionError{Op: "next player"}
	}
	e.index = (e.index + 1) % len(e.cfg.Players)
	e.request("vibrate", func() error { return e.aff.Vibrate(VibrateDuration) })
	e.logger.Debug().Int("player", e.index).Str("name", e.cfg.Players[e.index].Name).Msg("next player")
	e.emitActivePlayerLocked()
	e.startTurnLocked()
	return nil
}

// TogglePause flips the pause flag and returns the new value. The tick
// source keeps running; paused ticks are ignored.
func (e *Engine) TogglePause() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return false, &PreconditionError{Op: "toggle pause"}
	}
	e.paused = !e.paused
	e.emitLocked(EventPausedChanged, PausedPayload{Paused: e.paused})
	return e.paused, nil
}

// Tick advances the clock by one unit. The tick source calls it once per
// period; callers may also drive the clock by hand.
func (e *Engine) Tick() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return &PreconditionError{Op: "tick"}
	}
	e.tickLocked()
	return nil
}

// EndSession stops the clock and returns to idle. Calling it again is a no-op.
func (e *Engine) EndSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return
	}
	e.endLocked()
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return Snapshot{State: StateIdle}
	}
	return Snapshot{
		SessionID:   e.sessionID,
		State:       e.stateLocked(),
		ActiveIndex: e.index,
		Player:      e.cfg.Players[e.index],
		Value:       e.value,
		Remaining:   e.cfg.Settings.Remaining(e.value),
		Paused:      e.paused,
		Running:     !e.paused && !e.stopped,
	}
}

// Config returns a copy of the active session's config.
func (e *Engine) Config() (model.SessionConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return model.SessionConfig{}, false
	}
	return e.cfg.Clone(), true
}

func (e *Engine) stateLocked() State {
	switch {
	case !e.active:
		return StateIdle
	case e.stopped:
		return StateStopped
	case e.paused:
		return StatePaused
	default:
		return StateRunning
	}
}

func (e *Engine) startTurnLocked() {
	e.releaseTickSourceLocked()
	wasPaused := e.paused
	e.paused = false
	e.stopped = false
	e.nearEndFired = false
	e.value = e.cfg.Settings.InitialValue()
	e.request("stop cue", e.aff.StopCue)
	if wasPaused {
		e.emitLocked(EventPausedChanged, PausedPayload{Paused: false})
	}
	e.emitClockLocked()
	e.installTickSourceLocked()
}

func (e *Engine) tickLocked() {
	if e.paused || e.stopped {
		return
	}
	settings := e.cfg.Settings
	exhausted := false
	switch settings.Mode {
	case model.CountDown:
		e.value--
		if e.value <= 0 {
			e.value = 0
			exhausted = true
		}
	case model.CountUp:
		e.value++
		if e.policy.CapCountUp && e.value >= settings.DurationSeconds {
			e.value = settings.DurationSeconds
			exhausted = true
		}
	}

	threshold := e.policy.NearEndThreshold
	if !e.nearEndFired && settings.DurationSeconds > threshold && settings.Remaining(e.value) == threshold {
		e.nearEndFired = true
		e.emitLocked(EventNearEnd, nil)
		e.request("play cue", e.aff.PlayCue)
	}
	e.emitClockLocked()

	if exhausted {
		e.stopped = true
		e.releaseTickSourceLocked()
		e.logger.Debug().Int("player", e.index).Msg("turn time exhausted")
		e.emitLocked(EventTimeExhausted, nil)
	}
}

func (e *Engine) endLocked() {
	e.releaseTickSourceLocked()
	e.request("stop cue", e.aff.StopCue)
	e.request("release wake lock", e.aff.ReleaseWakeLock)
	e.emitLocked(EventSessionEnded, nil)
	e.logger.Info().Str("session_id", e.sessionID.String()).Msg("session ended")
	e.active = false
	e.paused = false
	e.stopped = false
	e.nearEndFired = false
}

func (e *Engine) emitActivePlayerLocked() {
	e.emitLocked(EventActivePlayerChanged, ActivePlayerPayload{Index: e.index, Player: e.cfg.Players[e.index]})
}

func (e *Engine) emitClockLocked() {
	settings := e.cfg.Settings
	progress := float64(e.value) / float64(settings.DurationSeconds)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	threshold := e.policy.NearEndThreshold
	e.emitLocked(EventClockUpdated, ClockPayload{
		Value:      e.value,
		Duration:   settings.DurationSeconds,
		Mode:       settings.Mode,
		Progress:   progress,
		EndingSoon: settings.DurationSeconds > threshold && settings.Remaining(e.value) <= threshold,
	})
}

func (e *Engine) emitLocked(t EventType, payload any) {
	e.listener.HandleEvent(Event{
		Type:      t,
		SessionID: e.sessionID,
		At:        e.clock.Now(),
		Payload:   payload,
	})
}

// request runs a platform side effect. Failures never reach the caller.
func (e *Engine) request(op string, fn func() error) {
	if err := fn(); err != nil {
		e.logger.Warn().Err(err).Str("op", op).Msg("platform request failed")
	}
}
