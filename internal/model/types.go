// Package model defines the session configuration shared by the engine, the store and the UI.
package model

import (
	"fmt"
	"strings"
)

// Mode selects the direction the turn clock runs in.
type Mode int

// Supported clock modes.
const (
	CountDown Mode = iota
	CountUp
)

var modeTokens = map[string]Mode{
	"countdown":   CountDown,
	"down":        CountDown,
	"regressive":  CountDown,
	"countup":     CountUp,
	"up":          CountUp,
	"progressive": CountUp,
}

// ParseMode resolves a mode token such as "countdown" or "progressive".
func ParseMode(token string) (Mode, error) {
	mode, ok := modeTokens[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return 0, &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q (use countdown or countup)", token)}
	}
	return mode, nil
}

func (m Mode) String() string {
	switch m {
	case CountDown:
		return "countdown"
	case CountUp:
		return "countup"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != CountDown && m != CountUp {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Player is one roster entry. Its identity is its position in the roster.
type Player struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
}

// PlayerEntry is raw, unvalidated player input.
type PlayerEntry struct {
	Name  string
	Color string
}

// RoundSettings describes the clock of every turn in a session.
type RoundSettings struct {
	DurationSeconds int  `json:"durationSeconds" yaml:"duration-seconds" toml:"duration-seconds"`
	Mode            Mode `json:"mode" yaml:"mode" toml:"mode"`
}

// InitialValue is the clock value a fresh turn starts from.
func (s RoundSettings) InitialValue() int {
	if s.Mode == CountDown {
		return s.DurationSeconds
	}
	return 0
}

// Remaining converts a clock value into seconds left before the duration is reached.
// It goes negative for uncapped count-up turns that run past the duration.
func (s RoundSettings) Remaining(value int) int {
	if s.Mode == CountDown {
		return value
	}
	return s.DurationSeconds - value
}

// SessionConfig is the validated roster and round rules for one session.
type SessionConfig struct {
	Players  []Player      `json:"players" yaml:"players" toml:"players"`
	Settings RoundSettings `json:"settings" yaml:"settings" toml:"settings"`
}

// Validate checks the invariants of a config that was not built through NewSessionConfig,
// such as one decoded from the settings store.
func (c SessionConfig) Validate() error {
	if len(c.Players) == 0 {
		return &ValidationError{Field: "players", Reason: "add at least one player"}
	}
	for i, p := range c.Players {
		if strings.TrimSpace(p.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("players[%d].name", i), Reason: "must not be empty"}
		}
		if p.Color != "" {
			if _, err := NormalizeColor(p.Color); err != nil {
				return err
			}
		}
	}
	if c.Settings.DurationSeconds <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be > 0"}
	}
	if c.Settings.Mode != CountDown && c.Settings.Mode != CountUp {
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %d", int(c.Settings.Mode))}
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate an engine-held roster.
func (c SessionConfig) Clone() SessionConfig {
	players := make([]Player, len(c.Players))
	copy(players, c.Players)
	return SessionConfig{Players: players, Settings: c.Settings}
}

// Policy holds the engine constants that differ between historical variants of the timer.
type Policy struct {
	// NearEndThreshold is the number of seconds before the end at which the near-end signal fires.
	NearEndThreshold int
	// CapCountUp stops count-up turns once the duration is reached.
	CapCountUp bool
}

// Default policy values.
const (
	DefaultNearEndThreshold = 10
	DefaultCapCountUp       = true
)

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{NearEndThreshold: DefaultNearEndThreshold, CapCountUp: DefaultCapCountUp}
}

// Validate rejects thresholds that can never be observed.
func (p Policy) Validate() error {
	if p.NearEndThreshold < 0 {
		return &ValidationError{Field: "near-end-threshold", Reason: "must be >= 0"}
	}
	return nil
}
