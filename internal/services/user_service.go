package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/adilet-s/spacebook/internal/apperrors"
	"github.com/adilet-s/spacebook/internal/config"
	"github.com/adilet-s/spacebook/internal/models"
	"github.com/adilet-s/spacebook/internal/repository"
	"github.com/adilet-s/spacebook/pkg/email"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserService encapsulates the business logic for user accounts and profiles.
type UserService struct {
	repo        *repository.UserRepository
	friendRepo  *repository.FriendRepository
	postRepo    *repository.PostRepository
	commentRepo *repository.CommentRepository
	chatRepo    *repository.ChatRepository
	notifRepo   *repository.NotificationRepository
	cfg         *config.Config
}

// NewUserService creates a new instance of UserService. The extra repositories
// are used for account export and cascade deletion.
func NewUserService(
	repo *repository.UserRepository,
	friendRepo *repository.FriendRepository,
	postRepo *repository.PostRepository,
	commentRepo *repository.CommentRepository,
	chatRepo *repository.ChatRepository,
	notifRepo *repository.NotificationRepository,
	cfg *config.Config,
) *UserService {
	return &UserService{
		repo:        repo,
		friendRepo:  friendRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		chatRepo:    chatRepo,
		notifRepo:   notifRepo,
		cfg:         cfg,
	}
}

// RegisterUser registers a new user after hashing their password.
func (s *UserService) RegisterUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	logrus.Info("Registering new user")

	if user.Email == "" || user.Username == "" || password == "" {
		logrus.Warn("Missing required fields during registration")
		return nil, fmt.Errorf("missing required user fields: %w", apperrors.ErrInvalidArgument)
	}

	if !emailRegex.MatchString(user.Email) {
		logrus.WithField("email", user.Email).Warn("Invalid email format during registration")
		return nil, fmt.Errorf("invalid email format: %w", apperrors.ErrInvalidArgument)
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user.HashedPassword = string(hashedPwd)
	user.Settings = models.DefaultSettings()
	if user.Role == "" {
		user.Role = "user"
	}
	user.VerifyToken = uuid.NewString()
	user.IsVerified = false

	// The unique email/username indexes turn a concurrent duplicate signup
	// into a Conflict from the repository.
	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	verificationLink := fmt.Sprintf("%s/auth/verify?token=%s", s.cfg.FrontendOrigin, createdUser.VerifyToken)
	emailBody := fmt.Sprintf("Welcome to Spacebook!\n\nPlease verify your email by clicking the link below:\n%s", verificationLink)

	if err := email.SendEmail(user.Email, "Email Verification", emailBody); err != nil {
		// Account creation stands; the user can request a new link later.
		logrus.WithError(err).Error("Failed to send verification email")
	}

	logrus.WithField("userID", createdUser.ID.Hex()).Info("User registered successfully")
	return createdUser, nil
}

// VerifyEmail confirms an account via its verification token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.repo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired verification token: %w", apperrors.ErrNotFound)
	}

	return s.repo.UpdateUser(ctx, user.ID, bson.M{
		"is_verified":  true,
		"verify_token": "",
	})
}

// AuthenticateUser verifies the email and password and returns the user if credentials are valid.
func (s *UserService) AuthenticateUser(ctx context.Context, userEmail, password string) (*models.User, error) {
	logrus.WithField("email", userEmail).Info("Authenticating user")

	user, err := s.repo.GetUserByEmail(ctx, userEmail)
	if err != nil {
		logrus.WithField("email", userEmail).Warn("User not found")
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthenticated)
	}

	if !user.IsVerified {
		logrus.WithField("email", userEmail).Warn("Attempt to login with unverified email")
		return nil, fmt.Errorf("email not verified: %w", apperrors.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", userEmail).Warn("Invalid credentials")
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthenticated)
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

func (s *UserService) RequestPasswordReset(ctx context.Context, userEmail string) error {
	user, err := s.repo.GetUserByEmail(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("no account found with this email: %w", apperrors.ErrNotFound)
	}

	resetToken := uuid.NewString()
	expiration := time.Now().Add(1 * time.Hour)

	err = s.repo.UpdateUser(ctx, user.ID, bson.M{
		"reset_token":     resetToken,
		"reset_token_exp": expiration,
	})
	if err != nil {
		return fmt.Errorf("failed to save reset token: %v", err)
	}

	resetLink := fmt.Sprintf("%s/auth/reset-password?token=%s", s.cfg.FrontendOrigin, resetToken)
	body := fmt.Sprintf("Click the link below to reset your password:\n\n%s", resetLink)

	if err := email.SendEmail(user.Email, "Reset Your Password", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %v", err)
	}

	logrus.Infof("Password reset email sent to %s", userEmail)
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.repo.GetUserByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired reset token: %w", apperrors.ErrNotFound)
	}

	if time.Now().After(user.ResetTokenExp) {
		return fmt.Errorf("reset token has expired: %w", apperrors.ErrInvalidArgument)
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	return s.repo.UpdateUser(ctx, user.ID, bson.M{
		"hashed_password": string(hashedPwd),
		"reset_token":     "",
		"reset_token_exp": time.Time{},
	})
}

// ListAllUsers returns every account. Reserved for admins.
func (s *UserService) ListAllUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// GetProfile returns another user's public profile, honoring their visibility
// setting: a "friends" profile is only visible to the owner and their friends.
func (s *UserService) GetProfile(ctx context.Context, viewerID, ownerID primitive.ObjectID, friends *FriendService) (*models.PublicUser, error) {
	user, err := s.repo.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if user.Settings.Visibility == "friends" && viewerID != ownerID {
		areFriends, err := friends.AreFriends(ctx, viewerID, ownerID)
		if err != nil {
			return nil, err
		}
		if !areFriends {
			return nil, fmt.Errorf("profile is visible to friends only: %w", apperrors.ErrForbidden)
		}
	}

	pub := user.Public()
	return &pub, nil
}

// UpdateUser applies a partial profile update (bio, avatar, username).
func (s *UserService) UpdateUser(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	allowed := map[string]bool{"username": true, "bio": true, "avatar_url": true}
	for key := range update {
		if !allowed[key] {
			return nil, fmt.Errorf("field %q cannot be updated: %w", key, apperrors.ErrInvalidArgument)
		}
	}

	if err := s.repo.UpdateUser(ctx, id, update); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

// UpdateSettings replaces the user's profile settings.
func (s *UserService) UpdateSettings(ctx context.Context, id primitive.ObjectID, settings models.UserSettings) error {
	if settings.Visibility != "public" && settings.Visibility != "friends" {
		return fmt.Errorf("visibility must be public or friends: %w", apperrors.ErrInvalidArgument)
	}
	return s.repo.UpdateUser(ctx, id, bson.M{"settings": settings})
}

// InviteUser emails an invitation to join, sent on behalf of an existing user.
func (s *UserService) InviteUser(ctx context.Context, inviterID primitive.ObjectID, inviteeEmail string) error {
	if !emailRegex.MatchString(inviteeEmail) {
		return fmt.Errorf("invalid email format: %w", apperrors.ErrInvalidArgument)
	}

	if existing, _ := s.repo.GetUserByEmail(ctx, inviteeEmail); existing != nil {
		return fmt.Errorf("this email already has an account: %w", apperrors.ErrConflict)
	}

	inviter, err := s.repo.GetUserByID(ctx, inviterID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("%s invited you to join Spacebook!\n\nSign up here: %s/auth/signup",
		inviter.Username, s.cfg.FrontendOrigin)
	if err := email.SendEmail(inviteeEmail, "You're invited to Spacebook", body); err != nil {
		return fmt.Errorf("failed to send invite: %v", err)
	}

	logrus.WithField("inviter", inviter.Username).Infof("Invite sent to %s", inviteeEmail)
	return nil
}

// ExportAccount gathers everything stored about the user into one document.
func (s *UserService) ExportAccount(ctx context.Context, id primitive.ObjectID) (map[string]interface{}, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	friendIDs, err := s.friendRepo.FriendIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.GetPostsByUser(ctx, id, true)
	if err != nil {
		return nil, err
	}

	messages, err := s.chatRepo.GetMessagesByUser(ctx, id)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"user":     user,
		"friends":  friendIDs,
		"posts":    posts,
		"messages": messages,
	}, nil
}

// DeleteAccount removes the user and everything attached to them: posts,
// comments, messages, notifications, friend requests, friendship edges and
// their slot in other users' top8.
func (s *UserService) DeleteAccount(ctx context.Context, id primitive.ObjectID) error {
	logrus.WithField("userID", id.Hex()).Info("Deleting account")

	if err := s.postRepo.DeletePostsByUser(ctx, id); err != nil {
		return err
	}
	if err := s.commentRepo.DeleteCommentsByUser(ctx, id); err != nil {
		return err
	}
	if err := s.chatRepo.DeleteMessagesByUser(ctx, id); err != nil {
		return err
	}
	if err := s.notifRepo.DeleteNotificationsByUser(ctx, id); err != nil {
		return err
	}
	if err := s.friendRepo.RemoveAllForUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.RemoveFromTop8(ctx, id); err != nil {
		return err
	}

	return s.repo.DeleteUser(ctx, id)
}

// UpdateLastActive bumps the user's last activity timestamp.
func (s *UserService) UpdateLastActive(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.UpdateLastActive(ctx, id)
}
