package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"postbox/internal/models"
)

// NewMongoClient connects and verifies the server is reachable.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

// MongoProfileStore keeps profiles in a collection with the uuid as _id.
type MongoProfileStore struct {
	col *mongo.Collection
}

func NewMongoProfileStore(client *mongo.Client, dbName, collection string) *MongoProfileStore {
	if dbName == "" {
		dbName = "postbox"
	}
	if collection == "" {
		collection = "profiles"
	}
	return &MongoProfileStore{col: client.Database(dbName).Collection(collection)}
}

func (s *MongoProfileStore) Save(ctx context.Context, p *models.Profile) error {
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": p.UUID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UUID, err)
	}
	return nil
}

func (s *MongoProfileStore) Get(ctx context.Context, uuid string) (*models.Profile, error) {
	var p models.Profile
	err := s.col.FindOne(ctx, bson.M{"_id": uuid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", uuid, err)
	}
	return &p, nil
}

func (s *MongoProfileStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, readpref.Primary())
}
