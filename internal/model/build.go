package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ColorSource supplies accent colors for players that did not pick one.
type ColorSource interface {
	Color() string
}

// DefaultPlayerName is the name used for a blank entry at the given 1-based position.
func DefaultPlayerName(index int) string {
	return fmt.Sprintf("Player %d", index)
}

// BuildRoster turns raw form entries into a roster of count players.
// Entries past count are ignored and missing entries get generated defaults.
func BuildRoster(count int, entries []PlayerEntry, colors ColorSource) ([]Player, error) {
	if count <= 0 {
		return nil, &ValidationError{Field: "players", Reason: "player count must be a positive integer"}
	}
	players := make([]Player, 0, count)
	for i := 0; i < count; i++ {
		var entry PlayerEntry
		if i < len(entries) {
			entry = entries[i]
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = DefaultPlayerName(i + 1)
		}
		color := strings.TrimSpace(entry.Color)
		if color == "" && colors != nil {
			color = colors.Color()
		}
		if color != "" {
			normalized, err := NormalizeColor(color)
			if err != nil {
				return nil, &ValidationError{Field: fmt.Sprintf("players[%d].color", i), Reason: fmt.Sprintf("invalid color %q", color)}
			}
			color = normalized
		}
		players = append(players, Player{Name: name, Color: color})
	}
	return players, nil
}

// BuildRoundSettings validates the duration and mode token.
func BuildRoundSettings(duration int, modeToken string) (RoundSettings, error) {
	if duration <= 0 {
		return RoundSettings{}, &ValidationError{Field: "duration", Reason: "must be a positive number of seconds"}
	}
	mode, err := ParseMode(modeToken)
	if err != nil {
		return RoundSettings{}, err
	}
	return RoundSettings{DurationSeconds: duration, Mode: mode}, nil
}

// NewSessionConfig assembles a config and checks that the roster is not empty.
func NewSessionConfig(players []Player, settings RoundSettings) (SessionConfig, error) {
	cfg := SessionConfig{Players: players, Settings: settings}
	if err := cfg.Validate(); err != nil {
		return SessionConfig{}, err
	}
	return cfg.Clone(), nil
}

// NormalizeColor accepts #rgb or #rrggbb (the # is optional) and returns lowercase #rrggbb.
func NormalizeColor(color string) (string, error) {
	c := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return "", &ValidationError{Field: "color", Reason: fmt.Sprintf("invalid color %q", color)}
	}
	if _, err := strconv.ParseUint(c, 16, 32); err != nil {
		return "", &ValidationError{Field: "color", Reason: fmt.Sprintf("invalid color %q", color)}
	}
	return "#" + strings.ToLower(c), nil
}

// ParseDuration reads a round length as plain seconds ("90"), MM:SS ("01:30")
// or a Go duration ("1m30s"). Only whole, positive seconds are accepted.
func ParseDuration(value string) (int, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, &ValidationError{Field: "duration", Reason: "must not be empty"}
	}
	var secs int
	switch {
	case isDigits(v):
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &ValidationError{Field: "duration", Reason: fmt.Sprintf("invalid duration %q", value)}
		}
		secs = n
	case strings.Contains(v, ":"):
		parts := strings.Split(v, ":")
		if len(parts) != 2 || !isDigits(parts[0]) || !isDigits(parts[1]) {
			return 0, &ValidationError{Field: "duration", Reason: fmt.Sprintf("invalid duration %q (use MM:SS)", value)}
		}
		minutes, _ := strconv.Atoi(parts[0])
		seconds, _ := strconv.Atoi(parts[1])
		if seconds >= 60 {
			return 0, &ValidationError{Field: "duration", Reason: fmt.Sprintf("invalid duration %q (seconds must be < 60)", value)}
		}
		secs = minutes*60 + seconds
	default:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, &ValidationError{Field: "duration", Reason: fmt.Sprintf("invalid duration %q", value)}
		}
		if d%time.Second != 0 {
			return 0, &ValidationError{Field: "duration", Reason: fmt.Sprintf("duration %q is not a whole number of seconds", value)}
		}
		secs = int(d / time.Second)
	}
	if secs <= 0 {
		return 0, &ValidationError{Field: "duration", Reason: "must be a positive number of seconds"}
	}
	return secs, nil
}

// FormatClock renders seconds as MM:SS. Minutes keep growing past 59.
func FormatClock(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/60, seconds%60)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
