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

const feedLimit = 100

// PostService handles business logic for bulletins.
type PostService struct {
	repo        *repository.PostRepository
	commentRepo *repository.CommentRepository
	friends     *FriendService
}

// NewPostService creates a new PostService.
func NewPostService(repo *repository.PostRepository, commentRepo *repository.CommentRepository, friends *FriendService) *PostService {
	return &PostService{
		repo:        repo,
		commentRepo: commentRepo,
		friends:     friends,
	}
}

// CreatePost publishes a new bulletin.
func (s *PostService) CreatePost(ctx context.Context, userID primitive.ObjectID, content, privacy string, mediaURLs []string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" && len(mediaURLs) == 0 {
		return nil, fmt.Errorf("post cannot be empty: %w", apperrors.ErrInvalidArgument)
	}
	if privacy == "" {
		privacy = models.PrivacyFriends
	}
	if privacy != models.PrivacyPublic && privacy != models.PrivacyFriends {
		return nil, fmt.Errorf("privacy must be public or friends: %w", apperrors.ErrInvalidArgument)
	}

	post := &models.Post{
		UserID:    userID,
		Content:   content,
		Privacy:   privacy,
		MediaURLs: mediaURLs,
	}
	return s.repo.CreatePost(ctx, post)
}

// GetPost fetches a single post if it is visible to the viewer.
func (s *PostService) GetPost(ctx context.Context, viewerID, postID primitive.ObjectID) (*models.Post, error) {
	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, viewerID, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) checkVisible(ctx context.Context, viewerID primitive.ObjectID, post *models.Post) error {
	if post.Privacy == models.PrivacyPublic || post.UserID == viewerID {
		return nil
	}
	areFriends, err := s.friends.AreFriends(ctx, viewerID, post.UserID)
	if err != nil {
		return err
	}
	if !areFriends {
		return fmt.Errorf("post is visible to friends only: %w", apperrors.ErrForbidden)
	}
	return nil
}

// GetUserPosts returns a user's posts visible to the viewer.
func (s *PostService) GetUserPosts(ctx context.Context, viewerID, ownerID primitive.ObjectID) ([]models.Post, error) {
	if viewerID == ownerID {
		return s.repo.GetPostsByUser(ctx, ownerID, true)
	}

	areFriends, err := s.friends.AreFriends(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetPostsByUser(ctx, ownerID, areFriends)
}

// GetFeed returns the newest posts from the user and their friends.
func (s *PostService) GetFeed(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	friendIDs, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend IDs: %v", err)
	}

	authors := append(friendIDs, userID)
	return s.repo.GetFeedPosts(ctx, authors, feedLimit)
}

// DeletePost removes a post and its comments. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID primitive.ObjectID) error {
	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return fmt.Errorf("only the author can delete a post: %w", apperrors.ErrForbidden)
	}

	if err := s.commentRepo.DeleteCommentsByPost(ctx, postID); err != nil {
		return err
	}
	return s.repo.DeletePost(ctx, postID)
}
