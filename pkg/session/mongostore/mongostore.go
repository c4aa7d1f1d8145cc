// Package mongostore is a session.Store backed by MongoDB.
//
// Each session is a document {_id, data, expires_at} where data is the JSON
// snapshot. A TTL index on expires_at lets MongoDB drop expired sessions;
// reads also filter them out since the TTL monitor runs only once a minute.
package mongostore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Config holds the MongoDB session store settings.
type Config struct {
	Collection string `env:"SESSION_MONGO_COLLECTION" envDefault:"sessions"`
}

type document struct {
	ID        string     `bson:"_id"`
	Data      string     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// Store implements session.Store, session.Toucher, session.Lister and
// session.EventSource.
type Store struct {
	session.Notifier

	coll *mongo.Collection
	down atomic.Bool
}

var (
	_ session.Store       = (*Store)(nil)
	_ session.Toucher     = (*Store)(nil)
	_ session.Lister      = (*Store)(nil)
	_ session.EventSource = (*Store)(nil)
)

// New creates a store using the given collection of db.
func New(db *mongo.Database, cfg Config) *Store {
	if cfg.Collection == "" {
		cfg.Collection = "sessions"
	}
	return &Store{coll: db.Collection(cfg.Collection)}
}

// EnsureIndexes creates the TTL index on expires_at.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("session_ttl"),
	})
	return err
}

// ServerMonitor returns driver heartbeat hooks that report connectivity
// changes as session store events. Pass it to the client with
// options.Client().SetServerMonitor before connecting.
func (s *Store) ServerMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) {
			if s.down.CompareAndSwap(true, false) {
				s.Notify(session.EventConnect)
			}
		},
		ServerHeartbeatFailed: func(*event.ServerHeartbeatFailedEvent) {
			if s.down.CompareAndSwap(false, true) {
				s.Notify(session.EventDisconnect)
			}
		},
	}
}

func liveFilter(extra bson.E) bson.D {
	return bson.D{
		extra,
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: time.Now()}}}},
		}},
	}
}

// Get returns nil for missing or expired sessions (mongo.ErrNoDocuments becomes nil).
func (s *Store) Get(ctx context.Context, id string) (*session.Snapshot, error) {
	var doc document
	err := s.coll.FindOne(ctx, liveFilter(bson.E{Key: "_id", Value: id})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session.DecodeSnapshot([]byte(doc.Data))
}

// Set creates or replaces the session document.
func (s *Store) Set(ctx context.Context, id string, snap *session.Snapshot) error {
	doc, err := toDocument(id, snap)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, options.Replace().SetUpsert(true))
	return err
}

// Touch replaces only the cookie of an existing session. Missing ids are ignored.
func (s *Store) Touch(ctx context.Context, id string, snap *session.Snapshot) error {
	current, err := s.Get(ctx, id)
	if err != nil || current == nil {
		return err
	}
	current.Cookie = snap.Cookie

	doc, err := toDocument(id, current)
	if err != nil {
		return err
	}
	// no upsert: a session destroyed meanwhile stays destroyed
	_, err = s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	return err
}

// Destroy deletes the session document.
func (s *Store) Destroy(ctx context.Context, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

// All returns every live session keyed by id.
func (s *Store) All(ctx context.Context) (map[string]*session.Snapshot, error) {
	cur, err := s.coll.Find(ctx, liveFilter(bson.E{Key: "_id", Value: bson.D{{Key: "$exists", Value: true}}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]*session.Snapshot)
	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		snap, err := session.DecodeSnapshot([]byte(doc.Data))
		if err != nil {
			return nil, err
		}
		out[doc.ID] = snap
	}
	return out, cur.Err()
}

// Len returns the number of live sessions.
func (s *Store) Len(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, liveFilter(bson.E{Key: "_id", Value: bson.D{{Key: "$exists", Value: true}}}))
	return int(n), err
}

// Clear deletes every session.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{})
	return err
}

func toDocument(id string, snap *session.Snapshot) (document, error) {
	data, err := snap.Encode()
	if err != nil {
		return document{}, err
	}
	doc := document{ID: id, Data: string(data)}
	if exp, ok := snap.ExpiresAt(); ok {
		doc.ExpiresAt = &exp
	}
	return doc, nil
}
