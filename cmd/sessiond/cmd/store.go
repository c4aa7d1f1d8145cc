package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/mongo"
	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/boltstore"
	"github.com/dmitrymomot/sessionkit/pkg/session/mongostore"
	"github.com/dmitrymomot/sessionkit/pkg/session/pgstore"
	"github.com/dmitrymomot/sessionkit/pkg/session/redisstore"
)

var errUnknownStore = errors.New("unknown session store")

// backend is an opened session store plus what the server needs around it.
type backend struct {
	name   string
	store  session.Store
	checks []httpserver.Check
	// background starts maintenance loops (health monitor, pruner); may be nil.
	background func(ctx context.Context)
	close      func(ctx context.Context) error
}

func (b *backend) lister() (session.Lister, error) {
	l, ok := b.store.(session.Lister)
	if !ok {
		return nil, fmt.Errorf("store %q does not support bulk operations", b.name)
	}
	return l, nil
}

func noClose(context.Context) error { return nil }

func openStore(ctx context.Context, kind string, log *slog.Logger) (*backend, error) {
	log = log.With(logger.Store(kind))

	switch strings.ToLower(kind) {
	case "", "memory":
		return &backend{name: "memory", store: session.NewMemoryStore(), close: noClose}, nil

	case "redis":
		var (
			connCfg  redis.Config
			storeCfg redisstore.Config
		)
		if err := loadAll(&connCfg, &storeCfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, connCfg)
		if err != nil {
			return nil, err
		}
		store := redisstore.New(client, storeCfg)
		return &backend{
			name:       "redis",
			store:      store,
			checks:     []httpserver.Check{{Name: "redis", Fn: redis.Healthcheck(client)}},
			background: store.Watch,
			close:      func(context.Context) error { return client.Close() },
		}, nil

	case "postgres", "pg":
		var (
			connCfg  pg.Config
			storeCfg pgstore.Config
		)
		if err := loadAll(&connCfg, &storeCfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, connCfg)
		if err != nil {
			return nil, err
		}
		if storeCfg.Migrate {
			if err := pgstore.Migrate(ctx, pool, connCfg, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		store := pgstore.New(pool)
		return &backend{
			name:   "postgres",
			store:  store,
			checks: []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}},
			background: func(ctx context.Context) {
				store.RunPruner(ctx, storeCfg.PruneInterval, func(err error) {
					log.ErrorContext(ctx, "session prune failed", logger.Error(err))
				})
			},
			close: func(context.Context) error { pool.Close(); return nil },
		}, nil

	case "mongo", "mongodb":
		var (
			connCfg  mongo.Config
			storeCfg mongostore.Config
		)
		if err := loadAll(&connCfg, &storeCfg); err != nil {
			return nil, err
		}
		// Heartbeats start before the store exists; bind the monitor late.
		var bound atomic.Pointer[mongostore.Store]
		monitor := options.Client().SetServerMonitor(lateMonitor(&bound))
		db, err := mongo.NewWithDatabase(ctx, connCfg, connCfg.Database, monitor)
		if err != nil {
			return nil, err
		}
		store := mongostore.New(db, storeCfg)
		bound.Store(store)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		return &backend{
			name:   "mongo",
			store:  store,
			checks: []httpserver.Check{{Name: "mongo", Fn: mongo.Healthcheck(db.Client())}},
			close:  func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
		}, nil

	case "bolt", "bbolt":
		var storeCfg boltstore.Config
		if err := config.Load(&storeCfg); err != nil {
			return nil, err
		}
		store, err := boltstore.Open(storeCfg)
		if err != nil {
			return nil, err
		}
		return &backend{
			name:  "bolt",
			store: store,
			background: func(ctx context.Context) {
				prunePeriodically(ctx, time.Minute, func(ctx context.Context) error {
					_, err := store.Prune(ctx)
					return err
				}, log)
			},
			close: func(context.Context) error { return store.Close() },
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", errUnknownStore, kind)
}

func lateMonitor(bound *atomic.Pointer[mongostore.Store]) *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(e *event.ServerHeartbeatSucceededEvent) {
			if s := bound.Load(); s != nil {
				s.ServerMonitor().ServerHeartbeatSucceeded(e)
			}
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			if s := bound.Load(); s != nil {
				s.ServerMonitor().ServerHeartbeatFailed(e)
			}
		},
	}
}

func loadAll[A, B any](a *A, b *B) error {
	if err := config.Load(a); err != nil {
		return err
	}
	return config.Load(b)
}

func prunePeriodically(ctx context.Context, every time.Duration, prune func(context.Context) error, log *slog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			start := time.Now()
			if err := prune(ctx); err != nil {
				log.ErrorContext(ctx, "session prune failed", logger.Error(err))
				continue
			}
			log.DebugContext(ctx, "expired sessions pruned", logger.Duration(time.Since(start)))
		}
	}
}
