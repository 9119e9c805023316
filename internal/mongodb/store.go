// Package mongodb implements the metadata store over two collections:
// "revisions" holds per-file version descriptions, "comments" holds the
// per-(file, version) discussion threads. Both key nested array entries by
// compound identifiers and are mutated with push/pull/array-filter updates.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"drivevault/internal/models"
	"drivevault/internal/services"
)

const (
	revisionsCollection = "revisions"
	commentsCollection  = "comments"
)

// Config holds the metadata store configuration.
type Config struct {
	URI      string
	Database string
	// OpTimeout bounds each store operation when the caller's context has no
	// earlier deadline.
	OpTimeout time.Duration
}

// Store talks to the document database.
type Store struct {
	client    *mongo.Client
	revisions *mongo.Collection
	comments  *mongo.Collection
	opTimeout time.Duration
	logger    *zap.Logger
}

// versionEntry is one element of a revision document's versions array.
type versionEntry struct {
	ID          string `bson:"id"`
	Name        string `bson:"name"`
	Description string `bson:"description"`
}

// revisionDoc is the per-file document in the revisions collection.
type revisionDoc struct {
	FileID      string         `bson:"file_id"`
	Description string         `bson:"description,omitempty"`
	Versions    []versionEntry `bson:"versions"`
}

// commentVersionEntry nests a version's comment thread inside its file doc.
type commentVersionEntry struct {
	ID       string           `bson:"id"`
	Name     string           `bson:"name"`
	Comments []models.Comment `bson:"comments"`
}

// commentDoc is the per-file document in the comments collection.
type commentDoc struct {
	FileID   string                `bson:"id"`
	Versions []commentVersionEntry `bson:"versions"`
}

// New connects to the document database and verifies the connection.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}

	if cfg.OpTimeout == 0 {
		cfg.OpTimeout = 10 * time.Second
	}
	db := client.Database(cfg.Database)
	logger.Info("connected to metadata store", zap.String("database", cfg.Database))

	return &Store{
		client:    client,
		revisions: db.Collection(revisionsCollection),
		comments:  db.Collection(commentsCollection),
		opTimeout: cfg.OpTimeout,
		logger:    logger,
	}, nil
}

// Close disconnects from the database.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// withTimeout applies the store's op timeout unless the caller set an
// earlier deadline.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

var _ services.MetadataStore = (*Store)(nil)

// isNoDocuments reports whether err is the driver's empty-result sentinel.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
