package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user account in Spacebook.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username       string               `bson:"username" json:"username"`
	Email          string               `bson:"email" json:"email"`
	HashedPassword string               `bson:"hashed_password" json:"-"`
	Bio            string               `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL      string               `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Top8           []primitive.ObjectID `bson:"top8,omitempty" json:"top8,omitempty"`
	Settings       UserSettings         `bson:"settings" json:"settings"`
	Role           string               `bson:"role" json:"role"`
	IsVerified     bool                 `bson:"is_verified" json:"is_verified"`
	VerifyToken    string               `bson:"verify_token,omitempty" json:"-"`
	ResetToken     string               `bson:"reset_token,omitempty" json:"-"`
	ResetTokenExp  time.Time            `bson:"reset_token_exp,omitempty" json:"-"`
	LastActiveAt   time.Time            `bson:"last_active_at,omitempty" json:"-"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// UserSettings holds per-profile preferences (visibility, messaging, theming).
type UserSettings struct {
	Visibility      string `bson:"visibility" json:"visibility"` // "public" or "friends"
	AllowMessages   bool   `bson:"allow_messages" json:"allow_messages"`
	ProfileMusicURL string `bson:"profile_music_url,omitempty" json:"profile_music_url,omitempty"`
	Theme           string `bson:"theme,omitempty" json:"theme,omitempty"` // JSON blob picked by the frontend
}

// DefaultSettings returns the settings applied to a fresh account.
func DefaultSettings() UserSettings {
	return UserSettings{
		Visibility:    "public",
		AllowMessages: true,
	}
}

// PublicUser is the shape of a user exposed to other users.
type PublicUser struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username"`
	Bio       string             `json:"bio,omitempty"`
	AvatarURL string             `json:"avatar_url,omitempty"`
}

// Public strips private fields from a user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
	}
}
