package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/adilet-s/spacebook/internal/apperrors"
	"github.com/adilet-s/spacebook/internal/models"
	"github.com/adilet-s/spacebook/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentService handles business logic for post comments.
type CommentService struct {
	repo     *repository.CommentRepository
	posts    *PostService
	notifier Notifier
}

// NewCommentService creates a new CommentService.
func NewCommentService(repo *repository.CommentRepository, posts *PostService, notifier Notifier) *CommentService {
	return &CommentService{
		repo:     repo,
		posts:    posts,
		notifier: notifier,
	}
}

// AddComment attaches a comment to a post the viewer can see. The post author
// gets a best-effort notification.
func (s *CommentService) AddComment(ctx context.Context, userID, postID primitive.ObjectID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("comment cannot be empty: %w", apperrors.ErrInvalidArgument)
	}

	post, err := s.posts.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	created, err := s.repo.CreateComment(ctx, comment)
	if err != nil {
		return nil, err
	}

	if post.UserID != userID {
		s.notifier.Emit(ctx, post.UserID, userID, models.NotifNewComment,
			"New comment", "Someone commented on your post", &postID)
	}

	return created, nil
}

// GetComments lists a post's comments if the viewer can see the post.
func (s *CommentService) GetComments(ctx context.Context, viewerID, postID primitive.ObjectID) ([]models.Comment, error) {
	if _, err := s.posts.GetPost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	return s.repo.GetCommentsByPost(ctx, postID)
}

// DeleteComment removes a comment. Allowed for the comment author and the
// post author.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID primitive.ObjectID) error {
	comment, err := s.repo.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != actorID {
		post, err := s.posts.repo.GetPostByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post.UserID != actorID {
			return fmt.Errorf("not allowed to delete this comment: %w", apperrors.ErrForbidden)
		}
	}

	return s.repo.DeleteComment(ctx, commentID)
}
