package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friend request lifecycle statuses. A request starts pending and moves to
// exactly one terminal status, never back.
const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)

// Actions a user can take on a pending request.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
	ActionCancel = "cancel"
)

type FriendRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequesterID primitive.ObjectID `bson:"requester_id" json:"requester_id"`
	RecipientID primitive.ObjectID `bson:"recipient_id" json:"recipient_id"`
	Status      string             `bson:"status" json:"status"`
	// PairKey is the canonical unordered-pair key for the two users. A partial
	// unique index on {pair_key, status: pending} makes the duplicate-request
	// check race-free.
	PairKey   string    `bson:"pair_key" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsTerminal reports whether the request can no longer transition.
func (r *FriendRequest) IsTerminal() bool {
	return r.Status != RequestPending
}

// Friendship is a single symmetric edge between two users. UserA/UserB are
// stored in canonical order (smaller hex ID first) so the unique compound
// index can enforce one edge per pair.
type Friendship struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserA     primitive.ObjectID `bson:"user_a" json:"user_a"`
	UserB     primitive.ObjectID `bson:"user_b" json:"user_b"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// NormalizePair returns the two IDs in canonical storage order.
func NormalizePair(a, b primitive.ObjectID) (primitive.ObjectID, primitive.ObjectID) {
	if a.Hex() > b.Hex() {
		return b, a
	}
	return a, b
}

// PairKey builds the canonical unordered-pair key for two users.
// PairKey(a, b) == PairKey(b, a).
func PairKey(a, b primitive.ObjectID) string {
	lo, hi := NormalizePair(a, b)
	return lo.Hex() + ":" + hi.Hex()
}
