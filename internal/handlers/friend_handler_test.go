package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/adilet-s/spacebook/internal/apperrors"
	"github.com/adilet-s/spacebook/internal/models"
	"github.com/adilet-s/spacebook/internal/services"
	jwtutil "github.com/adilet-s/spacebook/pkg/jwt"
	"github.com/adilet-s/spacebook/pkg/logger"
	"github.com/adilet-s/spacebook/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

// memStore is a minimal in-memory FriendStore with the same uniqueness
// guarantees the Mongo indexes provide.
type memStore struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*models.FriendRequest
	edges    map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[primitive.ObjectID]*models.FriendRequest),
		edges:    make(map[string]bool),
	}
}

func (m *memStore) CreateRequest(_ context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := models.PairKey(req.RequesterID, req.RecipientID)
	for _, r := range m.requests {
		if r.PairKey == key && r.Status == models.RequestPending {
			return nil, fmt.Errorf("pending request exists: %w", apperrors.ErrConflict)
		}
	}
	stored := *req
	stored.ID = primitive.NewObjectID()
	stored.Status = models.RequestPending
	stored.PairKey = key
	m.requests[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memStore) GetRequestByID(_ context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("friend request not found: %w", apperrors.ErrNotFound)
	}
	out := *r
	return &out, nil
}

func (m *memStore) PendingRequestsFor(_ context.Context, recipientID primitive.ObjectID) ([]models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.FriendRequest{}
	for _, r := range m.requests {
		if r.RecipientID == recipientID && r.Status == models.RequestPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) PendingRequestsFrom(_ context.Context, requesterID primitive.ObjectID) ([]models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.FriendRequest{}
	for _, r := range m.requests {
		if r.RequesterID == requesterID && r.Status == models.RequestPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) HasActiveRequest(_ context.Context, a, b primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := models.PairKey(a, b)
	for _, r := range m.requests {
		if r.PairKey == key && r.Status == models.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MarkResponded(_ context.Context, id primitive.ObjectID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok || r.Status != models.RequestPending {
		return fmt.Errorf("request is not pending: %w", apperrors.ErrConflict)
	}
	r.Status = status
	return nil
}

func (m *memStore) CreateFriendship(_ context.Context, a, b primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[models.PairKey(a, b)] = true
	return nil
}

func (m *memStore) RemoveFriendship(_ context.Context, a, b primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.edges, models.PairKey(a, b))
	return nil
}

func (m *memStore) FriendshipExists(_ context.Context, a, b primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edges[models.PairKey(a, b)], nil
}

func (m *memStore) FriendIDs(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []primitive.ObjectID
	hex := userID.Hex()
	for key := range m.edges {
		lo, hi := key[:24], key[25:]
		switch hex {
		case lo:
			id, _ := primitive.ObjectIDFromHex(hi)
			out = append(out, id)
		case hi:
			id, _ := primitive.ObjectIDFromHex(lo)
			out = append(out, id)
		}
	}
	return out, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[primitive.ObjectID]*models.User)}
}

func (m *memUsers) add(username string) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.users[id] = &models.User{ID: id, Username: username}
	return id
}

func (m *memUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
	}
	out := *u
	return &out, nil
}

func (m *memUsers) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) SetTop8(_ context.Context, id primitive.ObjectID, top8 []primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.Top8 = top8
	}
	return nil
}

func (m *memUsers) PullTop8(_ context.Context, ownerID, removedID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[ownerID]
	if !ok {
		return nil
	}
	var kept []primitive.ObjectID
	for _, id := range u.Top8 {
		if id != removedID {
			kept = append(kept, id)
		}
	}
	u.Top8 = kept
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Emit(context.Context, primitive.ObjectID, primitive.ObjectID, string, string, string, *primitive.ObjectID) {
}

type friendAPI struct {
	router *mux.Router
	users  *memUsers
	store  *memStore
}

func newFriendAPI() *friendAPI {
	store := newMemStore()
	users := newMemUsers()
	svc := services.NewFriendService(store, users, noopNotifier{})
	handler := NewFriendHandler(svc)

	router := mux.NewRouter()
	friends := router.PathPrefix("/friends").Subrouter()
	friends.Use(middleware.AuthMiddleware(testSecret))
	friends.HandleFunc("/requests", handler.GetPendingRequestsHandler).Methods("GET")
	friends.HandleFunc("/requests/sent", handler.GetSentRequestsHandler).Methods("GET")
	friends.HandleFunc("/requests/{id}/respond", handler.RespondToFriendRequestHandler).Methods("POST")
	friends.HandleFunc("/top8", handler.SetTop8Handler).Methods("PUT")
	friends.HandleFunc("/{id}/request", handler.SendFriendRequestHandler).Methods("POST")
	friends.HandleFunc("", handler.GetFriendsHandler).Methods("GET")
	friends.HandleFunc("/{id}", handler.RemoveFriendHandler).Methods("DELETE")

	return &friendAPI{router: router, users: users, store: store}
}

func (a *friendAPI) do(t *testing.T, method, path string, as primitive.ObjectID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)

	if !as.IsZero() {
		token, err := jwtutil.GenerateToken(as.Hex(), "user@example.com", "user", testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestFriendEndpointsRequireAuth(t *testing.T) {
	api := newFriendAPI()

	rec := api.do(t, http.MethodGet, "/friends", primitive.NilObjectID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/friends/"+primitive.NewObjectID().Hex()+"/request", primitive.NilObjectID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendFriendRequestHandler(t *testing.T) {
	t.Run("creates a request", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")
		bob := api.users.add("bob")

		rec := api.do(t, http.MethodPost, "/friends/"+bob.Hex()+"/request", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			OK      bool                 `json:"ok"`
			Request models.FriendRequest `json:"request"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.Equal(t, models.RequestPending, resp.Request.Status)
	})

	t.Run("rejects a malformed recipient ID", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")

		rec := api.do(t, http.MethodPost, "/friends/not-an-id/request", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("404 for an unknown recipient", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")

		rec := api.do(t, http.MethodPost, "/friends/"+primitive.NewObjectID().Hex()+"/request", alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("409 for a duplicate request in either direction", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")
		bob := api.users.add("bob")

		rec := api.do(t, http.MethodPost, "/friends/"+bob.Hex()+"/request", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = api.do(t, http.MethodPost, "/friends/"+bob.Hex()+"/request", alice, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = api.do(t, http.MethodPost, "/friends/"+alice.Hex()+"/request", bob, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestRespondToFriendRequestHandler(t *testing.T) {
	sendRequest := func(t *testing.T, api *friendAPI, from, to primitive.ObjectID) primitive.ObjectID {
		t.Helper()
		rec := api.do(t, http.MethodPost, "/friends/"+to.Hex()+"/request", from, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Request models.FriendRequest `json:"request"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Request.ID
	}

	t.Run("accept makes the pair friends on both sides", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")
		bob := api.users.add("bob")
		reqID := sendRequest(t, api, alice, bob)

		rec := api.do(t, http.MethodPost, "/friends/requests/"+reqID.Hex()+"/respond", bob,
			map[string]string{"action": "accept"})
		require.Equal(t, http.StatusOK, rec.Code)

		for _, viewer := range []primitive.ObjectID{alice, bob} {
			rec = api.do(t, http.MethodGet, "/friends", viewer, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var friends []models.PublicUser
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &friends))
			assert.Len(t, friends, 1)
		}
	})

	t.Run("403 when the requester tries to accept", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")
		bob := api.users.add("bob")
		reqID := sendRequest(t, api, alice, bob)

		rec := api.do(t, http.MethodPost, "/friends/requests/"+reqID.Hex()+"/respond", alice,
			map[string]string{"action": "accept"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("403 when the recipient tries to cancel", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")
		bob := api.users.add("bob")
		reqID := sendRequest(t, api, alice, bob)

		rec := api.do(t, http.MethodPost, "/friends/requests/"+reqID.Hex()+"/respond", bob,
			map[string]string{"action": "cancel"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("400 for an unknown action", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")
		bob := api.users.add("bob")
		reqID := sendRequest(t, api, alice, bob)

		rec := api.do(t, http.MethodPost, "/friends/requests/"+reqID.Hex()+"/respond", bob,
			map[string]string{"action": "befriend"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("409 when responding a second time", func(t *testing.T) {
		api := newFriendAPI()
		alice := api.users.add("alice")
		bob := api.users.add("bob")
		reqID := sendRequest(t, api, alice, bob)

		rec := api.do(t, http.MethodPost, "/friends/requests/"+reqID.Hex()+"/respond", bob,
			map[string]string{"action": "reject"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = api.do(t, http.MethodPost, "/friends/requests/"+reqID.Hex()+"/respond", bob,
			map[string]string{"action": "accept"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("404 for an unknown request", func(t *testing.T) {
		api := newFriendAPI()
		bob := api.users.add("bob")

		rec := api.do(t, http.MethodPost, "/friends/requests/"+primitive.NewObjectID().Hex()+"/respond", bob,
			map[string]string{"action": "accept"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRemoveFriendHandler(t *testing.T) {
	api := newFriendAPI()
	alice := api.users.add("alice")
	bob := api.users.add("bob")

	rec := api.do(t, http.MethodPost, "/friends/"+bob.Hex()+"/request", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Request models.FriendRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = api.do(t, http.MethodPost, "/friends/requests/"+resp.Request.ID.Hex()+"/respond", bob,
		map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodDelete, "/friends/"+alice.Hex(), bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/friends", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var friends []models.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &friends))
	assert.Empty(t, friends)

	// Removing again still succeeds.
	rec = api.do(t, http.MethodDelete, "/friends/"+alice.Hex(), bob, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetTop8Handler(t *testing.T) {
	api := newFriendAPI()
	alice := api.users.add("alice")
	stranger := api.users.add("stranger")

	rec := api.do(t, http.MethodPut, "/friends/top8", alice,
		map[string][]string{"top8": {stranger.Hex()}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/friends/top8", alice,
		map[string][]string{"top8": {"garbage"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
