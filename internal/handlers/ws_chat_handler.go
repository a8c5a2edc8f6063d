package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/adilet-s/spacebook/internal/models"
	"github.com/adilet-s/spacebook/internal/services"
	jwtutil "github.com/adilet-s/spacebook/pkg/jwt"
	"github.com/adilet-s/spacebook/pkg/logger"
	"github.com/adilet-s/spacebook/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WSMessage is the envelope exchanged over the chat socket.
type WSMessage struct {
	Type       string `json:"type"` // "text", "status", "typing", "notification"
	ReceiverID string `json:"receiver_id"`
	SenderID   string `json:"sender_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Typing     bool   `json:"typing,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks connected clients and fans events out to them. It doubles as the
// realtime delivery hook for notifications.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*websocket.Conn)}
}

func (h *Hub) register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[userID] = conn
	h.mu.Unlock()
	h.broadcastStatus(userID, "online")
}

func (h *Hub) unregister(userID string) {
	h.mu.Lock()
	delete(h.clients, userID)
	h.mu.Unlock()
	h.broadcastStatus(userID, "offline")
}

func (h *Hub) broadcastStatus(userID, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.clients {
		_ = conn.WriteJSON(map[string]interface{}{
			"type":   "status",
			"userId": userID,
			"status": status,
		})
	}
}

// SendToUser delivers a payload to one user's socket, if connected.
func (h *Hub) SendToUser(userID string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.clients[userID]; ok {
		_ = conn.WriteJSON(payload)
	}
}

// PushNotification implements services.Pusher.
func (h *Hub) PushNotification(userID string, notif *models.Notification) {
	h.SendToUser(userID, map[string]interface{}{
		"type":         "notification",
		"notification": notif,
	})
}

// ChatHandler serves the WebSocket endpoint and chat history.
type ChatHandler struct {
	Service   *services.ChatService
	Hub       *Hub
	JWTSecret string
}

func NewChatHandler(service *services.ChatService, hub *Hub, jwtSecret string) *ChatHandler {
	return &ChatHandler{Service: service, Hub: hub, JWTSecret: jwtSecret}
}

// ChatWebSocketHandler upgrades the connection and relays direct messages.
// The token travels in the query string because browsers cannot set headers
// on WebSocket upgrades.
func (h *ChatHandler) ChatWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.Warnf("WebSocket auth failed: %v", err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	logger.Log.Infof("WebSocket connected: %s", userID)
	h.Hub.register(userID, conn)

	defer func() {
		h.Hub.unregister(userID)
		conn.Close()
		logger.Log.Infof("WebSocket disconnected: %s", userID)
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break // client disconnected
		}

		if msg.Type == "typing" {
			h.Hub.SendToUser(msg.ReceiverID, map[string]interface{}{
				"type":      "typing",
				"sender_id": userID,
				"typing":    msg.Typing,
			})
			continue
		}

		if msg.Type == "" || msg.Type == "text" {
			senderObjID, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				continue
			}
			receiverObjID, err := primitive.ObjectIDFromHex(msg.ReceiverID)
			if err != nil {
				continue
			}

			newMsg := &models.Message{
				SenderID:   senderObjID,
				ReceiverID: receiverObjID,
				Type:       "text",
				Text:       msg.Text,
				CreatedAt:  time.Now(),
			}
			if _, err := h.Service.SendMessage(r.Context(), newMsg); err != nil {
				logger.Log.Warnf("Failed to store message: %v", err)
				h.Hub.SendToUser(userID, map[string]interface{}{
					"type":  "error",
					"error": err.Error(),
				})
				continue
			}

			response := map[string]interface{}{
				"type":        "text",
				"id":          newMsg.ID.Hex(),
				"sender_id":   userID,
				"receiver_id": msg.ReceiverID,
				"text":        msg.Text,
				"created_at":  newMsg.CreatedAt,
			}
			h.Hub.SendToUser(msg.ReceiverID, response)
			h.Hub.SendToUser(userID, response)
		}
	}
}

// GetChatHistory returns the conversation with another user.
func (h *ChatHandler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	friendID, err := primitive.ObjectIDFromHex(mux.Vars(r)["friendId"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	messages, err := h.Service.GetChat(r.Context(), userID, friendID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}
