// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/crongame/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Round    RoundConfig    `toml:"round"`
	Timer    TimerConfig    `toml:"timer"`
	Store    StoreConfig    `toml:"store"`
	Platform PlatformConfig `toml:"platform"`
	Log      LogConfig      `toml:"log"`
}

// RoundConfig maps the defaults for the setup screen.
type RoundConfig struct {
	Players  *int      `toml:"players"`
	Duration *Duration `toml:"duration"`
	Mode     *string   `toml:"mode"`
}

// TimerConfig maps engine policy settings.
type TimerConfig struct {
	NearEndThreshold *int  `toml:"near-end-threshold"`
	CapCountUp       *bool `toml:"cap-count-up"`
}

// StoreConfig maps settings store options.
type StoreConfig struct {
	Backend   *string `toml:"backend"`
	CacheSize *int    `toml:"cache-size"`
}

// PlatformConfig maps terminal affordances.
type PlatformConfig struct {
	KeepAwake *bool `toml:"keep-awake"`
	Bell      *bool `toml:"bell"`
}

// LogConfig maps logging options.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// Duration is a round length in seconds. In TOML it may be an integer (seconds)
// or a string such as "01:30" or "1m30s".
type Duration int

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Duration) UnmarshalTOML(v any) error {
	switch value := v.(type) {
	case int64:
		if value <= 0 {
			return fmt.Errorf("duration must be > 0")
		}
		*d = Duration(value)
		return nil
	case string:
		secs, err := model.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(secs)
		return nil
	default:
		return fmt.Errorf("unsupported duration value %v (%T)", v, v)
	}
}

// Seconds returns the duration as whole seconds.
func (d Duration) Seconds() int {
	return int(d)
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Merge overlays every value set in over onto base.
func Merge(base, over FileConfig) FileConfig {
	out := base
	setPtr(&out.Round.Players, over.Round.Players)
	setPtr(&out.Round.Duration, over.Round.Duration)
	setPtr(&out.Round.Mode, over.Round.Mode)
	setPtr(&out.Timer.NearEndThreshold, over.Timer.NearEndThreshold)
	setPtr(&out.Timer.CapCountUp, over.Timer.CapCountUp)
	setPtr(&out.Store.Backend, over.Store.Backend)
	setPtr(&out.Store.CacheSize, over.Store.CacheSize)
	setPtr(&out.Platform.KeepAwake, over.Platform.KeepAwake)
	setPtr(&out.Platform.Bell, over.Platform.Bell)
	setPtr(&out.Log.Level, over.Log.Level)
	setPtr(&out.Log.File, over.Log.File)
	return out
}

func setPtr[T any](target **T, value *T) {
	if value != nil {
		*target = value
	}
}
