// Package mongo implements queue.Store on MongoDB. Uniqueness is enforced by
// two indexes: job_ref_unique over every document and a partial
// active_position_unique over documents whose active flag is set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"printq/internal/logging"
	"printq/internal/queue"
)

const (
	colEntries = "queue_entries"

	indexJobRef         = "job_ref_unique"
	indexActivePosition = "active_position_unique"
)

var _ queue.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is a MongoDB queue.Store.
type Store struct {
	client *mongod.Client
	db     *mongod.Database
	logger *slog.Logger
	owned  bool
}

// New wraps db. The caller owns the client lifecycle and must call Migrate.
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{client: db.Client(), db: db, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "store.mongo")
	return s
}

// Open connects to uri, pings the server and creates indexes on database.
// The returned store disconnects the client on Close.
func Open(ctx context.Context, uri, database string, opts ...Option) (*Store, error) {
	client, err := mongod.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	s := New(client.Database(database), opts...)
	s.owned = true
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Migrate creates the collection indexes. It is safe to call repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	models := []mongod.IndexModel{
		{
			Keys:    bson.D{{Key: "job_ref", Value: 1}},
			Options: options.Index().SetName(indexJobRef).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "position", Value: 1}},
			Options: options.Index().
				SetName(indexActivePosition).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}
	if _, err := s.collection().Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo: create indexes: %w", err)
	}
	return nil
}

// Ping checks server connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongod.Database {
	return s.db
}

func (s *Store) collection() *mongod.Collection {
	return s.db.Collection(colEntries)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// translateDuplicate maps duplicate key errors onto queue sentinels using
// the violated index name.
func translateDuplicate(err error, entry queue.Entry) error {
	if !mongod.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexActivePosition):
		return fmt.Errorf("%w: position %d", queue.ErrPositionConflict, entry.Position)
	case strings.Contains(msg, indexJobRef):
		return fmt.Errorf("%w: %s", queue.ErrDuplicateJob, entry.JobRef)
	default:
		return err
	}
}
