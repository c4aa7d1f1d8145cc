// Package boltstore is a session.Store backed by an embedded bbolt file.
//
// It suits single-node deployments that want sessions to survive restarts
// without running a database server. Expired sessions are removed lazily on
// read and in bulk by Prune.
package boltstore

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Config holds the bolt session store settings.
type Config struct {
	Path    string        `env:"SESSION_BOLT_PATH" envDefault:"sessions.db"`
	Bucket  string        `env:"SESSION_BOLT_BUCKET" envDefault:"sessions"`
	Timeout time.Duration `env:"SESSION_BOLT_TIMEOUT" envDefault:"1s"` // file lock wait
}

// Store implements session.Store, session.Toucher and session.Lister.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

var (
	_ session.Store   = (*Store)(nil)
	_ session.Toucher = (*Store)(nil)
	_ session.Lister  = (*Store)(nil)
)

// New returns a store using bucket of an open database. The bucket is
// created on first write.
func New(db *bbolt.DB, bucket string) *Store {
	if bucket == "" {
		bucket = "sessions"
	}
	return &Store{db: db, bucket: []byte(bucket)}
}

// Open opens (or creates) the database file described by cfg.
func Open(cfg Config) (*Store, error) {
	db, err := bbolt.Open(cfg.Path, 0o600, &bbolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return New(db, cfg.Bucket), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns nil for missing or expired sessions.
func (s *Store) Get(ctx context.Context, id string) (*session.Snapshot, error) {
	snap, err := s.load(id)
	if session.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if snap.Expired(time.Now()) {
		if err := s.Destroy(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return snap, nil
}

// load reads a raw snapshot. A missing bucket or key is reported as session.ErrNotFound.
func (s *Store) load(id string) (*session.Snapshot, error) {
	var snap *session.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %s: %w", s.bucket, session.ErrNotFound)
		}
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("session %s: %w", id, session.ErrNotFound)
		}
		var err error
		snap, err = session.DecodeSnapshot(data)
		return err
	})
	return snap, err
}

// Set creates or replaces the session.
func (s *Store) Set(ctx context.Context, id string, snap *session.Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
}

// Touch replaces only the cookie of an existing session. Missing ids are ignored.
func (s *Store) Touch(ctx context.Context, id string, snap *session.Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		current, err := session.DecodeSnapshot(data)
		if err != nil {
			return err
		}
		current.Cookie = snap.Cookie
		updated, err := current.Encode()
		if err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
}

// Destroy deletes the session. Missing ids are not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(id))
	})
}

// All returns every live session keyed by id.
func (s *Store) All(ctx context.Context) (map[string]*session.Snapshot, error) {
	out := make(map[string]*session.Snapshot)
	now := time.Now()
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			snap, err := session.DecodeSnapshot(v)
			if err != nil {
				return fmt.Errorf("session %s: %w", k, err)
			}
			if !snap.Expired(now) {
				out[string(k)] = snap
			}
			return nil
		})
	})
	return out, err
}

// Len returns the number of live sessions.
func (s *Store) Len(ctx context.Context) (int, error) {
	all, err := s.All(ctx)
	return len(all), err
}

// Clear removes every session.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return nil
		}
		return tx.DeleteBucket(s.bucket)
	})
}

// Prune deletes expired sessions and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	var removed int
	now := time.Now()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			snap, err := session.DecodeSnapshot(v)
			if err != nil || snap.Expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}
