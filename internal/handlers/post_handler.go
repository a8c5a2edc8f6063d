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

// PostHandler manages HTTP endpoints for bulletins.
type PostHandler struct {
	Service *services.PostService
}

// NewPostHandler initializes a new PostHandler.
func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{Service: service}
}

// CreatePostHandler publishes a new post.
func (h *PostHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Content   string   `json:"content"`
		Privacy   string   `json:"privacy"`
		MediaURLs []string `json:"media_urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	post, err := h.Service.CreatePost(r.Context(), userID, body.Content, body.Privacy, body.MediaURLs)
	if err != nil {
		writeError(w, err)
		logger.Log.Warnf("Failed to create post: %v", err)
		return
	}

	logger.Log.Infof("User %s created post %s", claims.UserID, post.ID.Hex())
	writeJSON(w, http.StatusCreated, post)
}

// GetPostHandler fetches a single post.
func (h *PostHandler) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	viewerID, _ := primitive.ObjectIDFromHex(claims.UserID)

	post, err := h.Service.GetPost(r.Context(), viewerID, postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// GetUserPostsHandler lists a user's posts visible to the viewer.
func (h *PostHandler) GetUserPostsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ownerID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	viewerID, _ := primitive.ObjectIDFromHex(claims.UserID)

	posts, err := h.Service.GetUserPosts(r.Context(), viewerID, ownerID)
	if err != nil {
		writeError(w, err)
		logger.Log.Errorf("Failed to fetch posts for user %s: %v", mux.Vars(r)["id"], err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// GetFeedHandler lists the newest posts from the user and their friends.
func (h *PostHandler) GetFeedHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	posts, err := h.Service.GetFeed(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		logger.Log.Errorf("Failed to fetch feed for user %s: %v", claims.UserID, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// DeletePostHandler removes one of the user's own posts.
func (h *PostHandler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	actorID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.DeletePost(r.Context(), actorID, postID); err != nil {
		writeError(w, err)
		logger.Log.Warnf("Failed to delete post: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
