package database

import (
	"context"
	"fmt"
	"time"

	"github.com/adilet-s/spacebook/internal/config"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes the MongoDB connection and ensures the indexes the
// services rely on for their uniqueness guarantees.
func ConnectDB(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %v", err)
	}

	db := client.Database(cfg.DBName)

	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	logrus.WithField("database", cfg.DBName).Info("Connected to MongoDB")
	return db, nil
}

// ensureIndexes creates the indexes that turn check-then-insert races into
// rejected duplicate inserts:
//   - one friendship edge per canonical user pair
//   - at most one pending friend request per pair (either direction)
//   - unique account email and username
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("friendships").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_a", Value: 1}, {Key: "user_b", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create friendships index: %v", err)
	}

	_, err = db.Collection("friend_requests").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": "pending"}),
	})
	if err != nil {
		return fmt.Errorf("failed to create friend_requests index: %v", err)
	}

	_, err = db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create users indexes: %v", err)
	}

	return nil
}
