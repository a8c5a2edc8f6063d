package services

import (
	"context"
	"fmt"

	"github.com/adilet-s/spacebook/internal/apperrors"
	"github.com/adilet-s/spacebook/internal/models"
	"github.com/adilet-s/spacebook/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatService handles direct messages between users.
type ChatService struct {
	repo     *repository.ChatRepository
	userRepo *repository.UserRepository
	notifier Notifier
}

func NewChatService(repo *repository.ChatRepository, userRepo *repository.UserRepository, notifier Notifier) *ChatService {
	return &ChatService{
		repo:     repo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// SendMessage stores a direct message. The recipient must exist and allow
// messages; delivery over the socket and the notification are best-effort.
func (s *ChatService) SendMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	receiver, err := s.userRepo.GetUserByID(ctx, msg.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !receiver.Settings.AllowMessages {
		return nil, fmt.Errorf("user does not accept messages: %w", apperrors.ErrForbidden)
	}

	sent, err := s.repo.SendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, msg.ReceiverID, msg.SenderID, models.NotifNewMessage,
		"New message", "You have a new message", &sent.ID)

	return sent, nil
}

// GetChat returns the conversation between the user and a friend.
func (s *ChatService) GetChat(ctx context.Context, userID, friendID primitive.ObjectID) ([]models.Message, error) {
	return s.repo.GetChat(ctx, userID, friendID)
}
