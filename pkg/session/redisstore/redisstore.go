// Package redisstore is a session.Store backed by Redis.
//
// Sessions are stored as JSON snapshots under a key prefix. A session with a
// cookie expiry expires in Redis at the same instant; browser-session cookies
// use the configured default TTL. Watch reports reachability changes as
// session connect / disconnect events.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	redishelper "github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Config holds the Redis session store settings.
type Config struct {
	Prefix         string        `env:"SESSION_REDIS_PREFIX" envDefault:"sess:"`
	DefaultTTL     time.Duration `env:"SESSION_REDIS_DEFAULT_TTL" envDefault:"24h"` // TTL of sessions without cookie expiry
	ScanCount      int64         `env:"SESSION_REDIS_SCAN_COUNT" envDefault:"100"`
	HealthInterval time.Duration `env:"SESSION_REDIS_HEALTH_INTERVAL" envDefault:"5s"`
}

// DefaultConfig returns the default store settings.
func DefaultConfig() Config {
	return Config{
		Prefix:         "sess:",
		DefaultTTL:     24 * time.Hour,
		ScanCount:      100,
		HealthInterval: 5 * time.Second,
	}
}

// Store implements session.Store, session.Toucher, session.Lister and
// session.EventSource.
type Store struct {
	session.Notifier

	client redis.UniversalClient
	cfg    Config
}

var (
	_ session.Store       = (*Store)(nil)
	_ session.Toucher     = (*Store)(nil)
	_ session.Lister      = (*Store)(nil)
	_ session.EventSource = (*Store)(nil)
)

// New creates a store on top of an established client.
func New(client redis.UniversalClient, cfg Config) *Store {
	def := DefaultConfig()
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = def.DefaultTTL
	}
	if cfg.ScanCount <= 0 {
		cfg.ScanCount = def.ScanCount
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = def.HealthInterval
	}
	return &Store{client: client, cfg: cfg}
}

// Watch pings Redis until ctx is done, emitting EventDisconnect and
// EventConnect as reachability changes. Run it in its own goroutine.
func (s *Store) Watch(ctx context.Context) {
	redishelper.Monitor(ctx, s.client, s.cfg.HealthInterval, func(up bool) {
		if up {
			s.Notify(session.EventConnect)
		} else {
			s.Notify(session.EventDisconnect)
		}
	})
}

// Get returns nil for a missing session (redis.Nil becomes nil).
func (s *Store) Get(ctx context.Context, id string) (*session.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session.DecodeSnapshot(data)
}

// Set writes the snapshot with a TTL matching its cookie expiry.
// A snapshot that has already expired is deleted instead.
func (s *Store) Set(ctx context.Context, id string, snap *session.Snapshot) error {
	ttl := s.ttl(snap)
	if ttl <= 0 {
		return s.Destroy(ctx, id)
	}

	data, err := snap.Encode()
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), data, ttl).Err()
}

// Touch rewrites the cookie of an existing session and extends its TTL.
// Missing sessions are left alone.
func (s *Store) Touch(ctx context.Context, id string, snap *session.Snapshot) error {
	current, err := s.Get(ctx, id)
	if err != nil || current == nil {
		return err
	}
	current.Cookie = snap.Cookie

	ttl := s.ttl(current)
	if ttl <= 0 {
		return s.Destroy(ctx, id)
	}

	data, err := current.Encode()
	if err != nil {
		return err
	}
	// XX keeps a concurrently destroyed session destroyed
	err = s.client.SetXX(ctx, s.key(id), data, ttl).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Destroy deletes the session. Deleting a missing key is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// All returns every stored session keyed by id.
func (s *Store) All(ctx context.Context) (map[string]*session.Snapshot, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*session.Snapshot, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		snap, err := session.DecodeSnapshot([]byte(str))
		if err != nil {
			return nil, err
		}
		out[keys[i][len(s.cfg.Prefix):]] = snap
	}
	return out, nil
}

// Len returns the number of stored sessions.
func (s *Store) Len(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	return len(keys), err
}

// Clear deletes every session under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil || len(keys) == 0 {
		return err
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) keys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.cfg.Prefix+"*", s.cfg.ScanCount).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (s *Store) key(id string) string {
	return s.cfg.Prefix + id
}

func (s *Store) ttl(snap *session.Snapshot) time.Duration {
	exp, ok := snap.ExpiresAt()
	if !ok {
		return s.cfg.DefaultTTL
	}
	return time.Until(exp)
}
