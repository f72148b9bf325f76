package source

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

// MongoConfig holds the connection settings for the document source.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	FetchBatchSize int
}

// MongoSource reads story records from MongoDB, one collection per entity
// kind (collection names match models.EntityKind values).
type MongoSource struct {
	client         *mongo.Client
	database       *mongo.Database
	fetchBatchSize int
	logger         ectologger.Logger
}

// NewMongoSource connects to the source database and verifies the
// connection with a ping.
func NewMongoSource(ctx context.Context, cfg MongoConfig, logger ectologger.Logger) (*MongoSource, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to source: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping source: %w", err)
	}

	return &MongoSource{
		client:         client,
		database:       client.Database(cfg.Database),
		fetchBatchSize: cfg.FetchBatchSize,
		logger:         logger,
	}, nil
}

// FetchAll returns every record in the kind's collection.
func (s *MongoSource) FetchAll(ctx context.Context, kind models.EntityKind) ([]Record, error) {
	ctx, span := tracing.StartSpan(ctx, "source.MongoSource.FetchAll")
	defer span.End()

	findOpts := options.Find()
	if s.fetchBatchSize > 0 {
		findOpts.SetBatchSize(int32(s.fetchBatchSize))
	}
	cursor, err := s.database.Collection(kind.String()).Find(ctx, bson.M{}, findOpts)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("kind", kind.String()).Error("Failed to fetch records from source")
		return nil, fmt.Errorf("failed to fetch %s from source: %w", kind, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s records: %w", kind, err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDocument(doc))
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"kind":  kind.String(),
		"count": len(records),
	}).Debug("Fetched records from source")
	return records, nil
}

// LookupName fetches a single record's name field by ID.
func (s *MongoSource) LookupName(ctx context.Context, kind models.EntityKind, id string) (string, bool) {
	ctx, span := tracing.StartSpan(ctx, "source.MongoSource.LookupName")
	defer span.End()

	var doc bson.M
	err := s.database.Collection(kind.String()).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return "", false
	}

	if name, ok := doc["name"].(string); ok {
		return name, true
	}
	if desc, ok := doc["description"].(string); ok {
		return desc, true
	}
	return "", false
}

// PingSource verifies the source connection is still alive.
func (s *MongoSource) PingSource(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from the source.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func recordFromDocument(doc bson.M) Record {
	rec := Record{Data: map[string]any{}}
	for k, v := range doc {
		if k == "_id" {
			rec.ID = fmt.Sprintf("%v", v)
			continue
		}
		rec.Data[k] = normalizeValue(v)
	}
	return rec
}

// normalizeValue flattens bson array/document types into plain Go values so
// the mapper never sees driver-specific types.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case bson.A:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, normalizeValue(item))
		}
		return out
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
