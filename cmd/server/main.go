package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/adilet-s/spacebook/internal/config"
	"github.com/adilet-s/spacebook/internal/database"
	"github.com/adilet-s/spacebook/internal/handlers"
	"github.com/adilet-s/spacebook/internal/repository"
	cronjobs "github.com/adilet-s/spacebook/internal/scheduler"
	"github.com/adilet-s/spacebook/internal/services"
	"github.com/adilet-s/spacebook/pkg/logger"
	"github.com/adilet-s/spacebook/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB and ensure indexes
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// --- Services ---
	notificationService := services.NewNotificationService(notifRepo)
	userService := services.NewUserService(userRepo, friendRepo, postRepo, commentRepo, chatRepo, notifRepo, cfg)
	friendService := services.NewFriendService(friendRepo, userRepo, notificationService)
	postService := services.NewPostService(postRepo, commentRepo, friendService)
	commentService := services.NewCommentService(commentRepo, postService, notificationService)
	chatService := services.NewChatService(chatRepo, userRepo, notificationService)

	// --- Handlers ---
	hub := handlers.NewHub()
	notificationService.SetPusher(hub)

	userHandler := handlers.NewUserHandler(userService, friendService, cfg)
	friendHandler := handlers.NewFriendHandler(friendService)
	postHandler := handlers.NewPostHandler(postService)
	commentHandler := handlers.NewCommentHandler(commentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	chatHandler := handlers.NewChatHandler(chatService, hub, cfg.JWTSecret)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")
	router.HandleFunc("/users/verify", userHandler.VerifyEmailHandler).Methods("GET")

	// Password reset routes
	router.HandleFunc("/users/request-password-reset", userHandler.RequestPasswordResetHandler).Methods("POST")
	router.HandleFunc("/users/reset-password", userHandler.ResetPasswordHandler).Methods("POST")

	// Protected user routes (only authenticated users can access)
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	protectedUserRoutes.HandleFunc("/invite", userHandler.InviteUserHandler).Methods("POST")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.UpdateUserHandler).Methods("PATCH")
	protectedUserRoutes.HandleFunc("/{id}/profile", userHandler.GetProfileHandler).Methods("GET")

	// Account routes
	accountRoutes := router.PathPrefix("/account").Subrouter()
	accountRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	accountRoutes.HandleFunc("/export", userHandler.ExportAccountHandler).Methods("GET")
	accountRoutes.HandleFunc("", userHandler.DeleteAccountHandler).Methods("DELETE")

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/users", userHandler.AdminListUsersHandler).Methods("GET")

	// Settings
	settingsRoutes := router.PathPrefix("/settings").Subrouter()
	settingsRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	settingsRoutes.HandleFunc("", userHandler.UpdateSettingsHandler).Methods("PUT")

	// Friend routes
	protectedFriendRoutes := router.PathPrefix("/friends").Subrouter()
	protectedFriendRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedFriendRoutes.HandleFunc("/requests", friendHandler.GetPendingRequestsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/requests/sent", friendHandler.GetSentRequestsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/requests/{id}/respond", friendHandler.RespondToFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/top8", friendHandler.SetTop8Handler).Methods("PUT")
	protectedFriendRoutes.HandleFunc("/{id}/request", friendHandler.SendFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("", friendHandler.GetFriendsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/{id}", friendHandler.RemoveFriendHandler).Methods("DELETE")

	// Post routes
	protectedPostRoutes := router.PathPrefix("/posts").Subrouter()
	protectedPostRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedPostRoutes.HandleFunc("", postHandler.CreatePostHandler).Methods("POST")
	protectedPostRoutes.HandleFunc("/feed", postHandler.GetFeedHandler).Methods("GET")
	protectedPostRoutes.HandleFunc("/user/{id}", postHandler.GetUserPostsHandler).Methods("GET")
	protectedPostRoutes.HandleFunc("/{id}", postHandler.GetPostHandler).Methods("GET")
	protectedPostRoutes.HandleFunc("/{id}", postHandler.DeletePostHandler).Methods("DELETE")
	protectedPostRoutes.HandleFunc("/{id}/comments", commentHandler.AddCommentHandler).Methods("POST")
	protectedPostRoutes.HandleFunc("/{id}/comments", commentHandler.GetCommentsHandler).Methods("GET")

	commentRoutes := router.PathPrefix("/comments").Subrouter()
	commentRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	commentRoutes.HandleFunc("/{id}", commentHandler.DeleteCommentHandler).Methods("DELETE")

	// Notification routes
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", notificationHandler.GetUserNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read", notificationHandler.MarkManyAsReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkAsReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Chat routes
	router.HandleFunc("/ws/chat", chatHandler.ChatWebSocketHandler)
	messageRoutes := router.PathPrefix("/messages").Subrouter()
	messageRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	messageRoutes.HandleFunc("/{friendId}", chatHandler.GetChatHistory).Methods("GET")

	// Uploads
	uploadRoutes := router.PathPrefix("/uploads").Subrouter()
	uploadRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	uploadRoutes.HandleFunc("", uploadHandler.UploadFileHandler).Methods("POST")
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Periodic cleanup jobs
	cronjobs.StartCleanupJobs(notificationService, friendRepo)

	// Start the HTTP server
	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
