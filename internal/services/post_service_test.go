package services

import (
	"context"
	"testing"

	"github.com/adilet-s/spacebook/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewPostService(nil, nil, nil)
	author := primitive.NewObjectID()

	t.Run("rejects an empty post", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, author, "   ", "", nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})

	t.Run("rejects an unknown privacy value", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, author, "hello world", "everyone", nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}
