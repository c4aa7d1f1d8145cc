// Package pgstore is a session.Store backed by PostgreSQL.
//
// Sessions live in the "sessions" table created by the embedded goose
// migration (see Migrate). Rows whose expires_at has passed are invisible to
// reads and removed by Prune.
package pgstore

import (
	"context"
	"embed"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds the PostgreSQL session store settings.
type Config struct {
	// Migrate applies the sessions schema on startup
	Migrate bool `env:"SESSION_PG_MIGRATE" envDefault:"true"`
	// PruneInterval is the period of the expired-row cleanup, 0 disables it
	PruneInterval time.Duration `env:"SESSION_PG_PRUNE_INTERVAL" envDefault:"15m"`
}

// Store implements session.Store, session.Toucher and session.Lister.
type Store struct {
	db *pgxpool.Pool
}

var (
	_ session.Store   = (*Store)(nil)
	_ session.Toucher = (*Store)(nil)
	_ session.Lister  = (*Store)(nil)
)

// New creates a store on top of an open pool. Call Migrate first on a fresh database.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Logger receives migration output; *slog.Logger satisfies it.
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Migrate creates or upgrades the sessions table.
func Migrate(ctx context.Context, db *pgxpool.Pool, cfg pg.Config, log Logger) error {
	return pg.Migrate(ctx, db, cfg, migrations, "migrations", log)
}

const getQuery = `
SELECT data FROM sessions
WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`

// Get returns nil for missing or expired sessions (pgx.ErrNoRows becomes nil).
func (s *Store) Get(ctx context.Context, id string) (*session.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(ctx, getQuery, id).Scan(&data)
	if pg.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session.DecodeSnapshot(data)
}

const upsertQuery = `
INSERT INTO sessions (id, data, expires_at, updated_at)
VALUES (@id, @data, @expires_at, now())
ON CONFLICT (id) DO UPDATE
SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = now()`

// Set creates or replaces the session row.
func (s *Store) Set(ctx context.Context, id string, snap *session.Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, upsertQuery, pgx.NamedArgs{
		"id":         id,
		"data":       data,
		"expires_at": expiresAt(snap),
	})
	return err
}

const touchQuery = `
UPDATE sessions
SET data = jsonb_set(data, '{cookie}', $2::jsonb), expires_at = $3, updated_at = now()
WHERE id = $1`

// Touch replaces only the cookie of an existing session. Missing ids are ignored.
func (s *Store) Touch(ctx context.Context, id string, snap *session.Snapshot) error {
	cookie, err := json.Marshal(snap.Cookie)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, touchQuery, id, cookie, expiresAt(snap))
	return err
}

// Destroy deletes the session row.
func (s *Store) Destroy(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// All returns every live session keyed by id.
func (s *Store) All(ctx context.Context) (map[string]*session.Snapshot, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, data FROM sessions
WHERE expires_at IS NULL OR expires_at > now()`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*session.Snapshot)
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		snap, err := session.DecodeSnapshot(data)
		if err != nil {
			return nil, err
		}
		out[id] = snap
	}
	return out, rows.Err()
}

// Len returns the number of live sessions.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
SELECT count(*) FROM sessions
WHERE expires_at IS NULL OR expires_at > now()`).Scan(&n)
	return n, err
}

// Clear deletes every session.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions`)
	return err
}

// Prune deletes expired rows and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RunPruner calls Prune every interval until ctx is done. Errors are passed
// to onError, which may be nil.
func (s *Store) RunPruner(ctx context.Context, interval time.Duration, onError func(error)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx); err != nil && onError != nil && ctx.Err() == nil {
				onError(err)
			}
		}
	}
}

func expiresAt(snap *session.Snapshot) *time.Time {
	if exp, ok := snap.ExpiresAt(); ok {
		return &exp
	}
	return nil
}
