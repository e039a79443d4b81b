// Package boltcache is a bbolt-backed durable tier for the directive
// cache. Each cache scope maps to one bucket, so dropping a note's
// entries is a single bucket delete, and encoded results are
// zstd-compressed on the way in.
package boltcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"

	"github.com/thymelang/thyme/pkg/cache"
)

// DB is a persistent cache over one bbolt file. Safe for concurrent
// use.
type DB struct {
	db  *bolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates the cache file at path. The open times out
// rather than blocking forever on a file another process holds.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltcache: open %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltcache: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltcache: %w", err)
	}
	return &DB{db: db, enc: enc, dec: dec}, nil
}

// Close releases the underlying file.
func (d *DB) Close() error {
	d.enc.Close()
	d.dec.Close()
	return d.db.Close()
}

func bucketName(scope cache.Scope) []byte {
	return []byte(scope.String())
}

// Get returns the stored bytes for key, or nil when the scope or key
// is absent.
func (d *DB) Get(ctx context.Context, scope cache.Scope, key cache.Key) ([]byte, error) {
	var compressed []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(scope))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key.String())); v != nil {
			compressed = append(compressed, v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltcache: get: %w", err)
	}
	if compressed == nil {
		return nil, nil
	}
	data, err := d.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("boltcache: decompress: %w", err)
	}
	return data, nil
}

// Put stores data under key, creating the scope's bucket on first use.
func (d *DB) Put(ctx context.Context, scope cache.Scope, key cache.Key, data []byte) error {
	compressed := d.enc.EncodeAll(data, nil)
	err := d.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(scope))
		if err != nil {
			return err
		}
		return b.Put([]byte(key.String()), compressed)
	})
	if err != nil {
		return fmt.Errorf("boltcache: put: %w", err)
	}
	return nil
}

// Remove drops one entry. Removing an absent entry is not an error.
func (d *DB) Remove(ctx context.Context, scope cache.Scope, key cache.Key) error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(scope))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key.String()))
	})
	if err != nil {
		return fmt.Errorf("boltcache: remove: %w", err)
	}
	return nil
}

// ClearScope drops the scope's whole bucket.
func (d *DB) ClearScope(ctx context.Context, scope cache.Scope) error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket(bucketName(scope))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("boltcache: clear scope: %w", err)
	}
	return nil
}

var _ cache.PersistentCache = (*DB)(nil)
