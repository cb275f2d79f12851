package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tagvault-sync-server/internal/config"
	"tagvault-sync-server/internal/handler"
	"tagvault-sync-server/internal/middleware"
	"tagvault-sync-server/internal/repository"
	"tagvault-sync-server/internal/service"
	"tagvault-sync-server/internal/websocket"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Database.URI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}

	db := client.Database(cfg.Database.Name)
	if err := repository.EnsureTagIndexes(context.Background(), db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	ownedTagRepo := repository.NewTagRepository(db, repository.OwnedTagsCollection)
	sharedTagRepo := repository.NewTagRepository(db, repository.SharedTagsCollection)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	deviceService := service.NewDeviceService(deviceRepo)
	syncService := service.NewSyncService(ownedTagRepo, sharedTagRepo, wsManager)
	tagService := service.NewTagService(ownedTagRepo, syncService)
	shareService := service.NewShareService(sharedTagRepo, syncService)

	wsMessageHandler := handler.NewWebSocketMessageHandler(syncService)
	wsManager.SetMessageHandler(wsMessageHandler)

	authHandler := handler.NewAuthHandler(authService)
	deviceHandler := handler.NewDeviceHandler(deviceService)
	tagHandler := handler.NewTagHandler(tagService)
	shareHandler := handler.NewShareHandler(shareService)
	syncHandler := handler.NewSyncHandler(syncService)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/devices", deviceHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/devices/register", deviceHandler.Register).Methods("POST", "OPTIONS")
	protected.HandleFunc("/devices/{id}", deviceHandler.Revoke).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/tags", tagHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/tags", syncHandler.ListActive).Methods("GET", "OPTIONS")
	protected.HandleFunc("/tags", tagHandler.PurgeAll).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/tags/import", tagHandler.Import).Methods("POST", "OPTIONS")
	protected.HandleFunc("/tags/sync", syncHandler.FullSync).Methods("GET", "OPTIONS")
	protected.HandleFunc("/tags/changes", syncHandler.Changes).Methods("GET", "OPTIONS")
	protected.HandleFunc("/tags/{id}", tagHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/tags/{id}", tagHandler.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/tags/{id}/purge", tagHandler.Purge).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/shared-tags", shareHandler.Share).Methods("POST", "OPTIONS")
	protected.HandleFunc("/shared-tags/lookup", syncHandler.SharedLookup).Methods("POST", "OPTIONS")
	protected.HandleFunc("/shared-tags/lookup/by-user", syncHandler.SharedLookupByUser).Methods("POST", "OPTIONS")
	protected.HandleFunc("/shared-tags/{id}", shareHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/shared-tags/{id}", shareHandler.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/shared-tags/{id}/purge", shareHandler.Purge).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)
	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Tagvault Sync Server on %s (env: %s)", addr, cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"tagvault-sync-server"}`))
}
