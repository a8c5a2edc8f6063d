package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/adilet-s/spacebook/internal/apperrors"
	"github.com/adilet-s/spacebook/internal/models"
	"github.com/adilet-s/spacebook/internal/services"
	jwtutil "github.com/adilet-s/spacebook/pkg/jwt"
	"github.com/adilet-s/spacebook/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memNotifStore is an in-memory NotificationStore with the repository's
// owner-scoping behavior.
type memNotifStore struct {
	mu    sync.Mutex
	notifs map[primitive.ObjectID]*models.Notification
}

func newMemNotifStore() *memNotifStore {
	return &memNotifStore{notifs: make(map[primitive.ObjectID]*models.Notification)}
}

func (m *memNotifStore) CreateNotification(_ context.Context, notif *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *notif
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = time.Now()
	stored.ExpiresAt = stored.CreatedAt.Add(30 * 24 * time.Hour)
	m.notifs[stored.ID] = &stored
	notif.ID = stored.ID
	return nil
}

func (m *memNotifStore) GetUserNotifications(_ context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Notification{}
	for _, n := range m.notifs {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memNotifStore) MarkAsRead(_ context.Context, userID, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifs[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("notification not found: %w", apperrors.ErrNotFound)
	}
	n.Read = true
	return nil
}

func (m *memNotifStore) MarkManyAsRead(_ context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if n, ok := m.notifs[id]; ok && n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (m *memNotifStore) DeleteNotification(_ context.Context, userID, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifs[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("notification not found: %w", apperrors.ErrNotFound)
	}
	delete(m.notifs, id)
	return nil
}

func (m *memNotifStore) DeleteExpiredNotifications(context.Context) error {
	return nil
}

type notifAPI struct {
	router *mux.Router
	store  *memNotifStore
}

func newNotifAPI() *notifAPI {
	store := newMemNotifStore()
	svc := services.NewNotificationService(store)
	handler := NewNotificationHandler(svc)

	router := mux.NewRouter()
	notifications := router.PathPrefix("/notifications").Subrouter()
	notifications.Use(middleware.AuthMiddleware(testSecret))
	notifications.HandleFunc("", handler.GetUserNotificationsHandler).Methods("GET")
	notifications.HandleFunc("/read", handler.MarkManyAsReadHandler).Methods("POST")
	notifications.HandleFunc("/{id}/read", handler.MarkAsReadHandler).Methods("POST")
	notifications.HandleFunc("/{id}", handler.DeleteNotificationHandler).Methods("DELETE")

	return &notifAPI{router: router, store: store}
}

func (a *notifAPI) seed(t *testing.T, userID primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	notif := &models.Notification{UserID: userID, Type: models.NotifFriendRequest}
	require.NoError(t, a.store.CreateNotification(context.Background(), notif))
	return notif.ID
}

func (a *notifAPI) do(t *testing.T, method, path string, as primitive.ObjectID) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	token, err := jwtutil.GenerateToken(as.Hex(), "user@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestMarkAsReadHandlerScopesToOwner(t *testing.T) {
	api := newNotifAPI()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	notifID := api.seed(t, alice)

	// Another user cannot mark it read.
	rec := api.do(t, http.MethodPost, "/notifications/"+notifID.Hex()+"/read", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/notifications", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []models.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifications))
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].Read)

	// The owner can.
	rec = api.do(t, http.MethodPost, "/notifications/"+notifID.Hex()+"/read", alice)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/notifications", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifications))
	require.Len(t, notifications, 1)
	assert.True(t, notifications[0].Read)
}

func TestDeleteNotificationHandlerScopesToOwner(t *testing.T) {
	api := newNotifAPI()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	notifID := api.seed(t, alice)

	// Another user cannot delete it.
	rec := api.do(t, http.MethodDelete, "/notifications/"+notifID.Hex(), bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/notifications", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []models.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifications))
	assert.Len(t, notifications, 1)

	// The owner can, and a second delete is a 404.
	rec = api.do(t, http.MethodDelete, "/notifications/"+notifID.Hex(), alice)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodDelete, "/notifications/"+notifID.Hex(), alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
