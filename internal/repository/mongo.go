package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const mongoConnectTimeout = 10 * time.Second

// ConnectMongo connects to MongoDB and verifies the connection with a ping
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

type stateDocument struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStateStore keeps state slots as documents keyed by _id
type MongoStateStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoStateStore creates a store on the given database and collection
func NewMongoStateStore(client *mongo.Client, database, collection string, logger *zap.Logger) *MongoStateStore {
	return &MongoStateStore{
		collection: client.Database(database).Collection(collection),
		logger:     logger,
	}
}

// Get finds the document for key
func (s *MongoStateStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc stateDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to find state document", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to find state %s: %w", key, err)
	}
	return doc.Payload, nil
}

// Put upserts the document for key
func (s *MongoStateStore) Put(ctx context.Context, key string, data []byte) error {
	update := bson.M{"$set": bson.M{"payload": data, "updatedAt": time.Now().UTC()}}
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		s.logger.Error("failed to upsert state document", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to put state %s: %w", key, err)
	}
	return nil
}

// Delete removes the document for key
func (s *MongoStateStore) Delete(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		s.logger.Error("failed to delete state document", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}
