package services

import (
	"context"

	"github.com/adilet-s/spacebook/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pusher delivers a notification to a connected client in real time. Wired to
// the WebSocket hub in main; nil means no live delivery.
type Pusher interface {
	PushNotification(userID string, notif *models.Notification)
}

// NotificationStore is the persistence contract for notifications. Per-row
// operations take the owning user's ID and must refuse to touch rows that
// belong to someone else.
type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, userID, id primitive.ObjectID) error
	MarkManyAsRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) error
	DeleteNotification(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteExpiredNotifications(ctx context.Context) error
}

type NotificationService struct {
	repo   NotificationStore
	pusher Pusher
}

func NewNotificationService(repo NotificationStore) *NotificationService {
	return &NotificationService{repo: repo}
}

// SetPusher attaches the realtime delivery hook. Called once during startup.
func (s *NotificationService) SetPusher(p Pusher) {
	s.pusher = p
}

// Emit records a notification best-effort. Failures are logged and swallowed:
// a notification must never fail or roll back the state transition that
// triggered it.
func (s *NotificationService) Emit(ctx context.Context, userID primitive.ObjectID, actorID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) {
	notif := &models.Notification{
		UserID:   userID,
		ActorID:  &actorID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Read:     false,
		TargetID: targetID,
	}

	if err := s.repo.CreateNotification(ctx, notif); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID.Hex(),
			"type":    notifType,
		}).Warn("Failed to emit notification")
		return
	}

	if s.pusher != nil {
		s.pusher.PushNotification(userID.Hex(), notif)
	}
}

// GetUserNotifications returns all notifications for a user
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return s.repo.GetUserNotifications(ctx, userID)
}

// MarkNotificationAsRead sets the "read" status of one of the user's
// notifications to true.
func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, userID, notifID primitive.ObjectID) error {
	return s.repo.MarkAsRead(ctx, userID, notifID)
}

// MarkManyAsRead marks a batch of the user's notifications as read.
func (s *NotificationService) MarkManyAsRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) error {
	return s.repo.MarkManyAsRead(ctx, userID, ids)
}

// DeleteNotification deletes one of the user's notifications.
func (s *NotificationService) DeleteNotification(ctx context.Context, userID, notifID primitive.ObjectID) error {
	return s.repo.DeleteNotification(ctx, userID, notifID)
}

// DeleteExpiredNotifications is called periodically by cron to purge old rows.
func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	return s.repo.DeleteExpiredNotifications(ctx)
}
