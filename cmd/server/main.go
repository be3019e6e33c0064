package main

import (
	"collab-editor/internal/auth"
	"collab-editor/internal/collab"
	"collab-editor/internal/config"
	"collab-editor/internal/gateway"
	"collab-editor/internal/middleware"
	"collab-editor/internal/storage"
	"collab-editor/internal/suggest"
	"collab-editor/internal/worker"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db, err := storage.ConnectDb()
	if err != nil {
		log.Fatalf("error connecting to db %v", err)
	}

	// Migrate database schema
	storage.Migrate(db)

	// Persistence collaborator, with a redis read-through cache when available
	var store storage.Store = storage.NewGormStore(db)
	if redisClient := storage.InitRedis(config.AppConfig.RedisAddress); redisClient != nil {
		store = storage.NewCachedStore(store, redisClient)
	}

	// Initialize services
	collabService := collab.NewService(store, config.AppConfig.SessionTTL)

	var completer suggest.Completer
	if config.AppConfig.CompleterAddress != "" {
		completer = suggest.NewHTTPCompleter(config.AppConfig.CompleterAddress)
	}
	suggestionEngine := suggest.NewEngine(completer)

	verifier := auth.NewJWTVerifier(config.AppConfig.JWTSecret)
	hub := gateway.NewHub(collabService, suggestionEngine, verifier)
	collabHandler := collab.NewHandler(collabService, suggestionEngine)
	authMiddleware := &middleware.Auth{Verifier: verifier}

	// Background maintenance: expiry sweep and autosave of open documents
	pool := worker.NewWorkerPool(4)
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(config.AppConfig.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pool.Submit(func(ctx context.Context) error {
					if cleaned := collabService.CleanupExpiredSessions(ctx); cleaned > 0 {
						log.Printf("Cleaned up %d expired sessions", cleaned)
					}
					collabService.FlushOpenDocuments(ctx)
					return nil
				})
			case <-sweepDone:
				return
			}
		}
	}()

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": hub.ClientCount()})
	})

	// Realtime collaboration endpoint (token verified inside the gateway)
	router.GET("/ws", hub.HandleWS)

	// Document routes
	router.GET("/documents/:id", authMiddleware.AuthMiddleWare(), collabHandler.ShowDocument)
	router.GET("/documents/:id/history", authMiddleware.AuthMiddleWare(), collabHandler.ShowHistory)
	router.POST("/documents/:id/revert", authMiddleware.AuthMiddleWare(), collabHandler.Revert)
	router.GET("/documents/:id/suggestions", authMiddleware.AuthMiddleWare(), collabHandler.ListSuggestions)
	router.POST("/documents/:id/suggestions/:suggestionId/apply", authMiddleware.AuthMiddleWare(), collabHandler.ApplySuggestion)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	close(sweepDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	// Flush whatever is still open before exit
	collabService.FlushOpenDocuments(ctx)
	pool.Shutdown()

	log.Println("Server shutdown complete")
}
