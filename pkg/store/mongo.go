package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/plane"
)

// MongoStore persists variant documents in a MongoDB collection, one
// document per variant id. Replaces are upserts, so republishing a variant
// overwrites the previous settle.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoOptions configures a MongoStore connection.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo store requires a URI")
	}
	if opts.Database == "" {
		opts.Database = "quadmap"
	}
	if opts.Collection == "" {
		opts.Collection = "variants"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongo")
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

// storedDocument wraps a plane.Document with its variant id as the mongo
// document key.
type storedDocument struct {
	VariantID string          `bson:"_id"`
	Document  *plane.Document `bson:"document"`
}

func (s *MongoStore) Put(ctx context.Context, doc *plane.Document) error {
	if doc == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	wrapped := storedDocument{VariantID: doc.VariantID(), Document: doc}
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": wrapped.VariantID},
		wrapped,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "store variant %s", wrapped.VariantID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, variantID string) (*plane.Document, error) {
	var wrapped storedDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": variantID}).Decode(&wrapped)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "variant %q not found", variantID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load variant %s", variantID)
	}
	return wrapped.Document, nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list variants")
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var row struct {
			VariantID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode variant id")
		}
		ids = append(ids, row.VariantID)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "iterate variants")
	}
	return ids, nil
}

func (s *MongoStore) Delete(ctx context.Context, variantID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": variantID}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete variant %s", variantID)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
