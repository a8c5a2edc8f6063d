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
)

// FriendRepository persists friend requests and friendship edges.
//
// Uniqueness is enforced by indexes (see internal/database): a partial unique
// index on pending requests' pair_key, and a unique compound index on the
// canonical friendship pair. Races therefore surface as duplicate-key errors
// instead of silently creating a second row.
type FriendRepository struct {
	requests    *mongo.Collection
	friendships *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{
		requests:    db.Collection("friend_requests"),
		friendships: db.Collection("friendships"),
	}
}

// CreateRequest inserts a pending friend request. Returns ErrConflict if a
// pending request for the same pair already exists (either direction).
func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	req.CreatedAt = time.Now()
	req.Status = models.RequestPending
	req.PairKey = models.PairKey(req.RequesterID, req.RecipientID)

	result, err := r.requests.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("pending request already exists: %w", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert friend request: %w", apperrors.ErrDependency)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	req.ID = insertedID

	return req, nil
}

// GetRequestByID fetches a request, returning ErrNotFound if it does not exist.
func (r *FriendRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("friend request %s: %w", id.Hex(), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find friend request: %w", apperrors.ErrDependency)
	}
	return &request, nil
}

// PendingRequestsFor returns all pending requests addressed to the user.
func (r *FriendRepository) PendingRequestsFor(ctx context.Context, recipientID primitive.ObjectID) ([]models.FriendRequest, error) {
	return r.findRequests(ctx, bson.M{"recipient_id": recipientID, "status": models.RequestPending})
}

// PendingRequestsFrom returns all pending requests the user has sent.
func (r *FriendRepository) PendingRequestsFrom(ctx context.Context, requesterID primitive.ObjectID) ([]models.FriendRequest, error) {
	return r.findRequests(ctx, bson.M{"requester_id": requesterID, "status": models.RequestPending})
}

func (r *FriendRepository) findRequests(ctx context.Context, filter bson.M) ([]models.FriendRequest, error) {
	cursor, err := r.requests.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find friend requests: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []models.FriendRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode friend requests: %v", err)
	}
	return requests, nil
}

// HasActiveRequest reports whether a pending request exists between the two
// users, in either direction.
func (r *FriendRepository) HasActiveRequest(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	filter := bson.M{"pair_key": models.PairKey(a, b), "status": models.RequestPending}
	count, err := r.requests.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check active request: %w", apperrors.ErrDependency)
	}
	return count > 0, nil
}

// MarkResponded transitions a request from pending to the given terminal
// status. The update is conditional on the request still being pending, so a
// concurrent responder loses the race cleanly: the second caller observes zero
// modified documents and gets ErrConflict.
func (r *FriendRepository) MarkResponded(ctx context.Context, id primitive.ObjectID, status string) error {
	result, err := r.requests.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", apperrors.ErrDependency)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("request is not pending: %w", apperrors.ErrConflict)
	}
	return nil
}

// CreateFriendship materializes the symmetric edge for a pair. The pair is
// normalized before the insert; a duplicate-key error means the edge already
// exists and is treated as success, which makes concurrent acceptances safe.
func (r *FriendRepository) CreateFriendship(ctx context.Context, a, b primitive.ObjectID) error {
	lo, hi := models.NormalizePair(a, b)
	edge := models.Friendship{
		UserA:     lo,
		UserB:     hi,
		CreatedAt: time.Now(),
	}

	_, err := r.friendships.InsertOne(ctx, edge)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to insert friendship: %w", apperrors.ErrDependency)
	}
	return nil
}

// RemoveFriendship deletes the edge for the pair, order-independently. Removing
// a non-existent edge is a no-op.
func (r *FriendRepository) RemoveFriendship(ctx context.Context, a, b primitive.ObjectID) error {
	lo, hi := models.NormalizePair(a, b)
	_, err := r.friendships.DeleteOne(ctx, bson.M{"user_a": lo, "user_b": hi})
	if err != nil {
		return fmt.Errorf("failed to remove friendship: %w", apperrors.ErrDependency)
	}
	return nil
}

// FriendshipExists reports whether the pair is already friends.
func (r *FriendRepository) FriendshipExists(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	lo, hi := models.NormalizePair(a, b)
	count, err := r.friendships.CountDocuments(ctx, bson.M{"user_a": lo, "user_b": hi})
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", apperrors.ErrDependency)
	}
	return count > 0, nil
}

// FriendIDs returns the IDs of everyone the user shares an edge with.
func (r *FriendRepository) FriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"user_a": userID},
			{"user_b": userID},
		},
	}

	cursor, err := r.friendships.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve friendships: %w", apperrors.ErrDependency)
	}
	defer cursor.Close(ctx)

	var friends []primitive.ObjectID
	for cursor.Next(ctx) {
		var edge models.Friendship
		if err := cursor.Decode(&edge); err != nil {
			return nil, err
		}

		if edge.UserA == userID {
			friends = append(friends, edge.UserB)
		} else {
			friends = append(friends, edge.UserA)
		}
	}

	return friends, nil
}

// RemoveAllForUser deletes every request and edge involving the user. Used by
// account deletion.
func (r *FriendRepository) RemoveAllForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.requests.DeleteMany(ctx, bson.M{
		"$or": []bson.M{{"requester_id": userID}, {"recipient_id": userID}},
	})
	if err != nil {
		return fmt.Errorf("failed to delete friend requests: %v", err)
	}

	_, err = r.friendships.DeleteMany(ctx, bson.M{
		"$or": []bson.M{{"user_a": userID}, {"user_b": userID}},
	})
	if err != nil {
		return fmt.Errorf("failed to delete friendships: %v", err)
	}
	return nil
}

// DeleteStaleRequests removes terminal requests older than the cutoff. Called
// by the cron cleanup.
func (r *FriendRepository) DeleteStaleRequests(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.requests.DeleteMany(ctx, bson.M{
		"status":     bson.M{"$ne": models.RequestPending},
		"created_at": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale requests: %v", err)
	}
	return result.DeletedCount, nil
}
