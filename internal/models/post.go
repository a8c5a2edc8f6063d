package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post privacy levels.
const (
	PrivacyPublic  = "public"
	PrivacyFriends = "friends"
)

// Post is a bulletin published on a user's profile and in their friends' feed.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Content   string             `bson:"content" json:"content"`
	Privacy   string             `bson:"privacy" json:"privacy"`
	MediaURLs []string           `bson:"media_urls,omitempty" json:"media_urls,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
