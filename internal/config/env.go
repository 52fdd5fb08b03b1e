package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/verte-zerg/crongame/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. CRONGAME_DURATION.
const EnvPrefix = "CRONGAME"

type envConfig struct {
	Players          *int    `envconfig:"PLAYERS"`
	Duration         *string `envconfig:"DURATION"`
	Mode             *string `envconfig:"MODE"`
	NearEndThreshold *int    `envconfig:"NEAR_END_THRESHOLD"`
	CapCountUp       *bool   `envconfig:"CAP_COUNT_UP"`
	StoreBackend     *string `envconfig:"STORE"`
	CacheSize        *int    `envconfig:"CACHE_SIZE"`
	KeepAwake        *bool   `envconfig:"KEEP_AWAKE"`
	Bell             *bool   `envconfig:"BELL"`
	LogLevel         *string `envconfig:"LOG_LEVEL"`
	LogFile          *string `envconfig:"LOG_FILE"`
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// LoadEnv reads CRONGAME_* overrides. Unset variables stay nil.
func LoadEnv() (FileConfig, error) {
	var env envConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return FileConfig{}, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg := FileConfig{
		Round: RoundConfig{
			Players: env.Players,
			Mode:    env.Mode,
		},
		Timer: TimerConfig{
			NearEndThreshold: env.NearEndThreshold,
			CapCountUp:       env.CapCountUp,
		},
		Store: StoreConfig{
			Backend:   env.StoreBackend,
			CacheSize: env.CacheSize,
		},
		Platform: PlatformConfig{
			KeepAwake: env.KeepAwake,
			Bell:      env.Bell,
		},
		Log: LogConfig{
			Level: env.LogLevel,
			File:  env.LogFile,
		},
	}
	if env.Duration != nil {
		secs, err := model.ParseDuration(*env.Duration)
		if err != nil {
			return FileConfig{}, fmt.Errorf("invalid %s_DURATION: %w", EnvPrefix, err)
		}
		d := Duration(secs)
		cfg.Round.Duration = &d
	}
	return cfg, nil
}
