package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/adilet-s/spacebook/internal/services"
	"github.com/adilet-s/spacebook/pkg/logger"
	"github.com/adilet-s/spacebook/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendHandler manages HTTP endpoints related to friend requests and
// friendships.
type FriendHandler struct {
	Service *services.FriendService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

// SendFriendRequestHandler allows a user to send a friend request.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		logger.Log.Warn("Unauthorized attempt to send friend request")
		return
	}

	vars := mux.Vars(r)
	recipientIDHex := vars["id"]
	recipientID, err := primitive.ObjectIDFromHex(recipientIDHex)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		logger.Log.Warnf("Invalid recipient ID: %v", err)
		return
	}

	requesterID, _ := primitive.ObjectIDFromHex(claims.UserID)

	request, err := h.Service.SendRequest(r.Context(), requesterID, recipientID)
	if err != nil {
		writeError(w, err)
		logger.Log.Warnf("Failed to send friend request: %v", err)
		return
	}

	logger.Log.Infof("User %s sent a friend request to %s", claims.UserID, recipientIDHex)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"request": request,
	})
}

// GetPendingRequestsHandler shows all incoming friend requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		logger.Log.Warn("Unauthorized attempt to get pending requests")
		return
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	requests, err := h.Service.PendingRequests(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		logger.Log.Errorf("Failed to get pending requests: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// GetSentRequestsHandler shows all pending requests the user has sent.
func (h *FriendHandler) GetSentRequestsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	requests, err := h.Service.SentRequests(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		logger.Log.Errorf("Failed to get sent requests: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// RespondToFriendRequestHandler accepts, rejects or cancels a friend request.
func (h *FriendHandler) RespondToFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestIDHex := vars["id"]

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		logger.Log.Warn("Unauthorized request to respond to a friend request")
		return
	}

	requestID, err := primitive.ObjectIDFromHex(requestIDHex)
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		logger.Log.Warnf("Invalid friend request ID: %v", err)
		return
	}

	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		logger.Log.Warnf("Failed to decode response body: %v", err)
		return
	}
	defer r.Body.Close()

	actorID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.Respond(r.Context(), requestID, actorID, body.Action); err != nil {
		writeError(w, err)
		logger.Log.Warnf("Failed to respond to friend request %s: %v", requestIDHex, err)
		return
	}

	logger.Log.Infof("User %s responded to friend request %s (action: %s)", claims.UserID, requestIDHex, body.Action)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// GetFriendsHandler returns a list of the user's friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		logger.Log.Warn("Unauthorized attempt to get friends")
		return
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	friends, err := h.Service.ListFriends(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		logger.Log.Errorf("Failed to fetch friends for user %s: %v", claims.UserID, err)
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

// RemoveFriendHandler removes a friendship. Removing one that does not exist
// still reports success.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	friendID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.Unfriend(r.Context(), userID, friendID); err != nil {
		writeError(w, err)
		logger.Log.Errorf("Failed to remove friend: %v", err)
		return
	}

	logger.Log.Infof("User %s removed friend %s", claims.UserID, vars["id"])
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// SetTop8Handler replaces the user's curated top friends list.
func (h *FriendHandler) SetTop8Handler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Top8 []string `json:"top8"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	ids := make([]primitive.ObjectID, 0, len(body.Top8))
	for _, raw := range body.Top8 {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			http.Error(w, "Invalid friend ID in top8", http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.SetTop8(r.Context(), userID, ids); err != nil {
		writeError(w, err)
		logger.Log.Warnf("Failed to set top8 for user %s: %v", claims.UserID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
