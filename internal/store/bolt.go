package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const settingsBucket = "settings"

// Bolt keeps settings blobs in a bbolt bucket.
type Bolt struct {
	db *bolt.DB
}

var _ Settings = (*Bolt)(nil)

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("creating connection DB: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the bbolt file.
func (b *Bolt) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("error close DB connection: %w", err)
	}
	return nil
}

// Save stores blob under key, replacing any previous value.
func (b *Bolt) Save(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(settingsBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := bucket.Put([]byte(key), blob); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

// Load returns the blob stored under key or ErrNotFound.
func (b *Bolt) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var blob []byte
	if err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return ErrNotFound
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		blob = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	return blob, nil
}

// Clear removes key. Clearing a missing key is not an error.
func (b *Bolt) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}
