package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mbertrand/alluvial/pkg/errors"
)

// MongoStore persists charts in a MongoDB collection, one document per chart
// keyed by the chart ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection. The URI is a
// standard connection string (mongodb://host:port); database and collection
// name the storage location.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Put stores a chart, replacing any existing document with the same ID.
func (s *MongoStore) Put(ctx context.Context, c Chart) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, opts); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "store chart %s", c.ID)
	}
	return nil
}

// Get retrieves a chart by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (Chart, error) {
	var c Chart
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return Chart{}, errors.New(errors.ErrCodeNotFound, "chart %s not found", id)
	}
	if err != nil {
		return Chart{}, errors.Wrap(errors.ErrCodeInternal, err, "load chart %s", id)
	}
	return c, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
