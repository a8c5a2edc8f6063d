package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/adilet-s/spacebook/internal/config"
	"github.com/adilet-s/spacebook/internal/models"
	"github.com/adilet-s/spacebook/internal/services"
	jwtutil "github.com/adilet-s/spacebook/pkg/jwt"
	"github.com/adilet-s/spacebook/pkg/middleware"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler handles HTTP requests related to user accounts and profiles.
type UserHandler struct {
	Service       *services.UserService
	FriendService *services.FriendService
	Config        *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, friendService *services.FriendService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service:       service,
		FriendService: friendService,
		Config:        cfg,
	}
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("RegisterUserHandler called")
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Bio      string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.WithError(err).Warn("Failed to decode user registration request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user := &models.User{
		Username: body.Username,
		Email:    body.Email,
		Bio:      body.Bio,
	}

	createdUser, err := h.Service.RegisterUser(r.Context(), user, body.Password)
	if err != nil {
		log.WithError(err).Error("Failed to register user")
		writeError(w, err)
		return
	}

	log.WithField("userID", createdUser.ID.Hex()).Info("User registered successfully")
	writeJSON(w, http.StatusCreated, createdUser)
}

// VerifyEmailHandler confirms an account from the emailed verification link.
func (h *UserHandler) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	if err := h.Service.VerifyEmail(r.Context(), token); err != nil {
		log.WithError(err).Warn("Email verification failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

// LoginUserHandler handles user login.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("LoginUserHandler called")
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		log.WithFields(log.Fields{
			"email": credentials.Email,
			"error": err,
		}).Warn("Authentication failed")
		writeError(w, err)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RequestPasswordResetHandler emails a password reset link.
func (h *UserHandler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.Service.RequestPasswordReset(r.Context(), body.Email); err != nil {
		log.WithError(err).Warn("Password reset request failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent"})
}

// ResetPasswordHandler sets a new password from a reset token.
func (h *UserHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.Service.ResetPassword(r.Context(), body.Token, body.Password); err != nil {
		log.WithError(err).Warn("Password reset failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// GetUserHandler handles fetching the logged-in user's own account.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestedUserID := vars["id"]

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		log.Warn("Unauthorized access attempt to GetUserHandler")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if requestedUserID != claims.UserID {
		log.WithFields(log.Fields{
			"requestedUserID": requestedUserID,
			"loggedInUserID":  claims.UserID,
		}).Warn("Forbidden access attempt")
		http.Error(w, "Forbidden: You can only access your own account", http.StatusForbidden)
		return
	}

	userID, err := primitive.ObjectIDFromHex(requestedUserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		log.WithField("userID", requestedUserID).WithError(err).Warn("User not found")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetProfileHandler returns another user's public profile, honoring their
// visibility setting.
func (h *UserHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	ownerID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	viewerID, _ := primitive.ObjectIDFromHex(claims.UserID)

	profile, err := h.Service.GetProfile(r.Context(), viewerID, ownerID, h.FriendService)
	if err != nil {
		log.WithError(err).Warnf("Failed to fetch profile %s", vars["id"])
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateUserHandler handles updating a user profile.
func (h *UserHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestedUserID := vars["id"]

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		log.Warn("Unauthorized access attempt to UpdateUserHandler")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if requestedUserID != claims.UserID {
		http.Error(w, "Forbidden: You can only update your own profile", http.StatusForbidden)
		return
	}

	var update bson.M
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	user, err := h.Service.UpdateUser(r.Context(), userID, update)
	if err != nil {
		log.WithError(err).Warn("Failed to update user")
		writeError(w, err)
		return
	}

	log.WithField("userID", claims.UserID).Info("User profile updated")
	writeJSON(w, http.StatusOK, user)
}

// UpdateSettingsHandler replaces profile settings (visibility, messaging,
// music, theme).
func (h *UserHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var settings models.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.UpdateSettings(r.Context(), userID, settings); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// InviteUserHandler emails an invitation to join.
func (h *UserHandler) InviteUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	inviterID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.InviteUser(r.Context(), inviterID, body.Email); err != nil {
		log.WithError(err).Warn("Failed to send invite")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// ExportAccountHandler returns everything stored about the user as JSON.
func (h *UserHandler) ExportAccountHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	export, err := h.Service.ExportAccount(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to export account")
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=account-export.json")
	writeJSON(w, http.StatusOK, export)
}

// DeleteAccountHandler removes the user and all their data.
func (h *UserHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.Service.DeleteAccount(r.Context(), userID); err != nil {
		log.WithError(err).Error("Failed to delete account")
		writeError(w, err)
		return
	}

	log.WithField("userID", claims.UserID).Info("Account deleted")
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// AdminListUsersHandler returns every account. Role enforcement happens in
// the RequireRole middleware on the route.
func (h *UserHandler) AdminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := h.Service.ListAllUsers(r.Context())
	if err != nil {
		log.WithError(err).Error("Admin failed to list users")
		writeError(w, err)
		return
	}

	log.Infof("Admin %s listed %d users", claims.UserID, len(users))
	writeJSON(w, http.StatusOK, users)
}
