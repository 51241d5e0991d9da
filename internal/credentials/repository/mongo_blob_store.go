package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	apperrors "github.com/allisson/credproxy/internal/errors"
)

// MongoBlobStore keeps blobs in a MongoDB collection keyed by _id.
type MongoBlobStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoBlobStore connects to uri and pings the server before returning.
func NewMongoBlobStore(ctx context.Context, uri, dbName, collName string) (*MongoBlobStore, error) {
	if uri == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "mongo uri is empty")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect to mongo")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.Wrap(err, "failed to ping mongo")
	}

	return &MongoBlobStore{
		client: client,
		coll:   client.Database(dbName).Collection(collName),
	}, nil
}

// Put upserts the blob document for key.
func (m *MongoBlobStore) Put(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC()
	_, err := m.coll.UpdateByID(
		ctx,
		key,
		bson.M{
			"$set":         bson.M{"data": value, "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to put blob")
	}
	return nil
}

// Get retrieves the blob document for key.
func (m *MongoBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc struct {
		Data []byte `bson:"data"`
	}
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get blob")
	}
	return doc.Data, nil
}

// Close disconnects the client.
func (m *MongoBlobStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
