package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verte-zerg/crongame/internal/model"
)

// ConfigKey is the key the last session configuration is stored under.
const ConfigKey = "cronGameConfig"

// ErrNotFound is returned by Load when nothing is stored under a key.
var ErrNotFound = errors.New("not found")

// Settings is a durable key/value store for configuration blobs.
type Settings interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Clear(ctx context.Context, key string) error
	Close() error
}

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Options selects and configures a Settings backend.
type Options struct {
	Backend   string
	Path      string
	CacheSize int
}

// Open opens the configured backend, wrapped in a cache when CacheSize > 0.
func Open(opts Options) (Settings, error) {
	var (
		s   Settings
		err error
	)
	switch opts.Backend {
	case "", BackendSQLite:
		s, err = OpenSQLite(opts.Path)
	case BackendBolt:
		s, err = OpenBolt(opts.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q (use %s or %s)", opts.Backend, BackendSQLite, BackendBolt)
	}
	if err != nil {
		return nil, err
	}
	if opts.CacheSize <= 0 {
		return s, nil
	}
	cached, err := NewCached(s, opts.CacheSize)
	if err != nil {
		if cerr := s.Close(); cerr != nil {
			// Best-effort close when the cache can't be built.
			_ = cerr
		}
		return nil, err
	}
	return cached, nil
}

// SaveConfig stores cfg as the latest session configuration.
func SaveConfig(ctx context.Context, s Settings, cfg model.SessionConfig) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := s.Save(ctx, ConfigKey, blob); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// LoadConfig returns the latest stored session configuration.
// It returns ErrNotFound when nothing was saved yet.
func LoadConfig(ctx context.Context, s Settings) (model.SessionConfig, error) {
	blob, err := s.Load(ctx, ConfigKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.SessionConfig{}, ErrNotFound
		}
		return model.SessionConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	var cfg model.SessionConfig
	if err := json.Unmarshal(blob, &cfg); err != nil {
		return model.SessionConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return model.SessionConfig{}, fmt.Errorf("stored config is invalid: %w", err)
	}
	return cfg, nil
}

// ClearConfig removes the stored session configuration.
func ClearConfig(ctx context.Context, s Settings) error {
	if err := s.Clear(ctx, ConfigKey); err != nil {
		return fmt.Errorf("failed to clear config: %w", err)
	}
	return nil
}
