package kv

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps every collection as one document {_id: name, data: bytes}
// inside a single Mongo collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	ID   string `bson:"_id"`
	Data []byte `bson:"data"`
}

// NewMongo connects to uri and uses database.collections.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("kv: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("kv: mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("collections"),
	}, nil
}

func (m *MongoStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": collection}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

func (m *MongoStore) Put(ctx context.Context, collection string, data []byte) error {
	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": collection},
		mongoDoc{ID: collection, Data: data},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) Close() error {
	return m.client.Disconnect(context.Background())
}
