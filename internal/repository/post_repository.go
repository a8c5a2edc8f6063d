package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adilet-s/spacebook/internal/apperrors"
	"github.com/adilet-s/spacebook/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepository struct {
	collection *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		collection: db.Collection("posts"),
	}
}

// CreatePost inserts a new post.
func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	post.ID = insertedID

	return post, nil
}

// GetPostByID fetches a single post.
func (r *PostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("post %s: %w", id.Hex(), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find post: %v", err)
	}
	return &post, nil
}

// GetPostsByUser returns a user's posts, newest first.
func (r *PostRepository) GetPostsByUser(ctx context.Context, userID primitive.ObjectID, includePrivate bool) ([]models.Post, error) {
	filter := bson.M{"user_id": userID}
	if !includePrivate {
		filter["privacy"] = models.PrivacyPublic
	}
	return r.findPosts(ctx, filter, 0)
}

// GetFeedPosts returns the newest posts authored by any of the given users.
func (r *PostRepository) GetFeedPosts(ctx context.Context, userIDs []primitive.ObjectID, limit int64) ([]models.Post, error) {
	filter := bson.M{"user_id": bson.M{"$in": userIDs}}
	return r.findPosts(ctx, filter, limit)
}

func (r *PostRepository) findPosts(ctx context.Context, filter bson.M, limit int64) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %v", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %v", err)
	}
	return posts, nil
}

// DeletePost deletes a single post.
func (r *PostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete post: %v", err)
	}
	return nil
}

// DeletePostsByUser removes all posts by a user. Used by account deletion.
func (r *PostRepository) DeletePostsByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete user posts: %v", err)
	}
	return nil
}
