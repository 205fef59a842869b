package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-extractor-api/internal/config"
	"pdf-extractor-api/internal/db"
	"pdf-extractor-api/internal/document"
	"pdf-extractor-api/internal/logger"
	"pdf-extractor-api/internal/middleware"
	"pdf-extractor-api/internal/pdf"
	"pdf-extractor-api/internal/storage"
	"pdf-extractor-api/internal/worker"
	"pdf-extractor-api/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()
	logger.Init(config.AppConfig.LogLevel, config.AppConfig.Environment)

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Create upload and image directories
	if err := config.InitDirectories(); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to create storage directories")
	}

	// Initialize Redis cache
	cache := redis.NewCache()

	// Initialize components
	fileStore := storage.NewFileStore(config.AppConfig.UploadDir, config.AppConfig.ImageDir)
	decoder := pdf.NewDecoder()
	docRepo := document.NewRepository(db.AppDb)
	docService := document.NewService(docRepo, decoder, fileStore, cache, config.AppConfig.APIPrefix)
	docHandler := document.NewHandler(docService, fileStore)

	// Retention worker
	retentionWorker := worker.NewRetentionWorker(
		docRepo,
		fileStore,
		cache,
		time.Duration(config.AppConfig.RetentionMinutes)*time.Minute,
		time.Duration(config.AppConfig.CleanupIntervalSeconds)*time.Second,
	)
	retentionWorker.Start()

	// Initialize Gin router
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		AllowAllOrigins:  true,
	}
	router.Use(cors.New(corsConfig))

	// API routes
	api := router.Group(config.AppConfig.APIPrefix)
	api.POST("/extract", docHandler.Extract)
	api.GET("/documents", docHandler.ListDocuments)
	api.GET("/documents/:id", docHandler.ShowDocument)
	api.GET("/images/:filename", docHandler.DownloadImage)
	api.GET("/workers/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"file_cleanup_worker": retentionWorker.Status()})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to PDF Extractor API"})
	})

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		logger.Log.Info().Str("port", serverPort).Msg("server listening")
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("server shutdown error")
	}

	retentionWorker.Stop()
	logger.Log.Info().Msg("server shutdown complete")
}
