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

type CommentHandler struct {
	Service *services.CommentService
}

func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{Service: service}
}

// AddCommentHandler attaches a comment to a post.
func (h *CommentHandler) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
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

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	comment, err := h.Service.AddComment(r.Context(), userID, postID, body.Content)
	if err != nil {
		writeError(w, err)
		logger.Log.Warnf("Failed to add comment: %v", err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// GetCommentsHandler lists a post's comments.
func (h *CommentHandler) GetCommentsHandler(w http.ResponseWriter, r *http.Request) {
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

	comments, err := h.Service.GetComments(r.Context(), viewerID, postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// DeleteCommentHandler removes a comment.
func (h *CommentHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	commentID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	actorID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.DeleteComment(r.Context(), actorID, commentID); err != nil {
		writeError(w, err)
		logger.Log.Warnf("Failed to delete comment: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
