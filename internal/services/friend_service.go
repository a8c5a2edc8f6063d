package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/adilet-s/spacebook/internal/apperrors"
	"github.com/adilet-s/spacebook/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendStore is the persistence contract for friend requests and friendship
// edges. The store is responsible for making duplicate checks race-free:
// CreateRequest must reject a second pending request for the same pair,
// MarkResponded must only succeed while the request is still pending, and
// CreateFriendship must be idempotent for an existing edge.
type FriendStore interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error)
	PendingRequestsFor(ctx context.Context, recipientID primitive.ObjectID) ([]models.FriendRequest, error)
	PendingRequestsFrom(ctx context.Context, requesterID primitive.ObjectID) ([]models.FriendRequest, error)
	HasActiveRequest(ctx context.Context, a, b primitive.ObjectID) (bool, error)
	MarkResponded(ctx context.Context, id primitive.ObjectID, status string) error
	CreateFriendship(ctx context.Context, a, b primitive.ObjectID) error
	RemoveFriendship(ctx context.Context, a, b primitive.ObjectID) error
	FriendshipExists(ctx context.Context, a, b primitive.ObjectID) (bool, error)
	FriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// FriendUserStore is the slice of user persistence the friend service needs.
type FriendUserStore interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	SetTop8(ctx context.Context, id primitive.ObjectID, top8 []primitive.ObjectID) error
	PullTop8(ctx context.Context, ownerID, removedID primitive.ObjectID) error
}

// Notifier delivers notifications best-effort. Implementations must never
// return an error to the caller; delivery failure is logged and swallowed so
// the friend state transition stays authoritative.
type Notifier interface {
	Emit(ctx context.Context, userID primitive.ObjectID, actorID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID)
}

// FriendService handles business logic for managing friendships.
type FriendService struct {
	store    FriendStore
	users    FriendUserStore
	notifier Notifier
}

// NewFriendService creates a new FriendService.
func NewFriendService(store FriendStore, users FriendUserStore, notifier Notifier) *FriendService {
	return &FriendService{
		store:    store,
		users:    users,
		notifier: notifier,
	}
}

// SendRequest creates a new friend request from requester to recipient.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, recipientID primitive.ObjectID) (*models.FriendRequest, error) {
	if requesterID == recipientID {
		return nil, fmt.Errorf("cannot send a friend request to yourself: %w", apperrors.ErrInvalidArgument)
	}

	recipient, err := s.users.GetUserByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.FriendshipExists(ctx, requesterID, recipientID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("already friends: %w", apperrors.ErrConflict)
	}

	active, err := s.store.HasActiveRequest(ctx, requesterID, recipientID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("a pending request already exists between these users: %w", apperrors.ErrConflict)
	}

	request := &models.FriendRequest{
		RequesterID: requesterID,
		RecipientID: recipientID,
	}

	// The store enforces the pending-pair uniqueness again at insert time, so
	// two concurrent sends cannot both get through the checks above.
	created, err := s.store.CreateRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, recipient.ID, requesterID, models.NotifFriendRequest,
		"New friend request", "You have a new friend request", &created.ID)

	return created, nil
}

// Respond applies accept, reject or cancel to a pending request.
// Only the recipient may accept or reject; only the requester may cancel.
// Responding to a request that already reached a terminal status is a
// conflict, never a silent success.
func (s *FriendService) Respond(ctx context.Context, requestID, actorID primitive.ObjectID, action string) error {
	if action != models.ActionAccept && action != models.ActionReject && action != models.ActionCancel {
		return fmt.Errorf("unknown action %q: %w", action, apperrors.ErrInvalidArgument)
	}

	request, err := s.store.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}

	switch action {
	case models.ActionCancel:
		if request.RequesterID != actorID {
			return fmt.Errorf("only the requester can cancel: %w", apperrors.ErrForbidden)
		}
	default:
		if request.RecipientID != actorID {
			return fmt.Errorf("only the recipient can respond: %w", apperrors.ErrForbidden)
		}
	}

	if request.IsTerminal() {
		return fmt.Errorf("request already %s: %w", request.Status, apperrors.ErrConflict)
	}

	switch action {
	case models.ActionAccept:
		// The idempotent edge insert goes first: if it fails, the request is
		// still pending and the accept can simply be retried. The conditional
		// status update afterwards decides the race between responders.
		if err := s.store.CreateFriendship(ctx, request.RequesterID, request.RecipientID); err != nil {
			return err
		}
		if err := s.store.MarkResponded(ctx, requestID, models.RequestAccepted); err != nil {
			return err
		}
		s.notifier.Emit(ctx, request.RequesterID, request.RecipientID, models.NotifFriendAccept,
			"Friend request accepted", "Your friend request was accepted", &request.ID)
		return nil

	case models.ActionReject:
		return s.store.MarkResponded(ctx, requestID, models.RequestRejected)

	default: // cancel
		return s.store.MarkResponded(ctx, requestID, models.RequestCancelled)
	}
}

// Unfriend removes the friendship edge between the two users, regardless of
// which side originally accepted. Removing a non-existent edge is a no-op.
func (s *FriendService) Unfriend(ctx context.Context, actorID, otherID primitive.ObjectID) error {
	if err := s.store.RemoveFriendship(ctx, actorID, otherID); err != nil {
		return err
	}

	// Ex-friends cannot stay in each other's top8.
	if err := s.users.PullTop8(ctx, actorID, otherID); err != nil {
		return err
	}
	return s.users.PullTop8(ctx, otherID, actorID)
}

// ListFriends returns the user's friends sorted by username.
func (s *FriendService) ListFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	friendIDs, err := s.store.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend IDs: %v", err)
	}

	if len(friendIDs) == 0 {
		return []models.PublicUser{}, nil
	}

	users, err := s.users.GetUsersByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %v", err)
	}

	friends := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		friends = append(friends, user.Public())
	}
	sort.Slice(friends, func(i, j int) bool {
		return friends[i].Username < friends[j].Username
	})

	return friends, nil
}

// FriendIDs returns the IDs of all users sharing a friendship edge with the
// given user.
func (s *FriendService) FriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.store.FriendIDs(ctx, userID)
}

// AreFriends reports whether the two users share a friendship edge.
func (s *FriendService) AreFriends(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	return s.store.FriendshipExists(ctx, a, b)
}

// PendingRequests fetches all pending requests addressed to the user.
func (s *FriendService) PendingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	return s.store.PendingRequestsFor(ctx, userID)
}

// SentRequests fetches all pending requests the user has sent.
func (s *FriendService) SentRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	return s.store.PendingRequestsFrom(ctx, userID)
}

// SetTop8 replaces the user's curated top friends. Every entry must be an
// existing friend and the list is capped at eight.
func (s *FriendService) SetTop8(ctx context.Context, userID primitive.ObjectID, top8 []primitive.ObjectID) error {
	if len(top8) > 8 {
		return fmt.Errorf("top8 may contain at most 8 friends: %w", apperrors.ErrInvalidArgument)
	}

	friendIDs, err := s.store.FriendIDs(ctx, userID)
	if err != nil {
		return err
	}
	friendSet := make(map[primitive.ObjectID]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		friendSet[id] = struct{}{}
	}

	seen := make(map[primitive.ObjectID]struct{}, len(top8))
	for _, id := range top8 {
		if _, ok := friendSet[id]; !ok {
			return fmt.Errorf("top8 may only contain friends: %w", apperrors.ErrInvalidArgument)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("top8 contains duplicate entries: %w", apperrors.ErrInvalidArgument)
		}
		seen[id] = struct{}{}
	}

	return s.users.SetTop8(ctx, userID, top8)
}
