package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	drivescope "google.golang.org/api/drive/v3"

	"drivevault/internal/cache"
	"drivevault/internal/config"
	"drivevault/internal/drive"
	"drivevault/internal/mongodb"
	"drivevault/internal/router"
	"drivevault/internal/services"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger.Info("Starting drivevault")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Storage provider client
	creds, err := os.ReadFile(cfg.Drive.CredentialsFile)
	if err != nil {
		logger.Fatal("Failed to read drive credentials", zap.Error(err))
	}
	jwtConfig, err := google.JWTConfigFromJSON(creds, drivescope.DriveScope)
	if err != nil {
		logger.Fatal("Failed to parse drive credentials", zap.Error(err))
	}
	driveClient, err := drive.NewClient(ctx, drive.Config{
		TokenSource:          jwtConfig.TokenSource(ctx),
		RenameBackMaxElapsed: cfg.Drive.RenameBackMaxElapsed,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize drive client", zap.Error(err))
	}
	logger.Info("Drive client initialized")

	// Metadata store
	store, err := mongodb.New(ctx, mongodb.Config{
		URI:       cfg.Mongo.URI,
		Database:  cfg.Mongo.Database,
		OpTimeout: cfg.Mongo.OpTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize metadata store", zap.Error(err))
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := store.Close(shutdownCtx); err != nil {
			logger.Warn("Metadata store close failed", zap.Error(err))
		}
	}()
	logger.Info("Metadata store initialized")

	// Cache
	cacheProvider, err := cache.New(&cache.Config{
		Provider:        cfg.Cache.Provider,
		TTL:             cfg.Cache.TTL,
		MaxKeys:         cfg.Cache.MaxKeys,
		CleanupInterval: cfg.Cache.CleanupInterval,
		RedisURL:        cfg.Cache.RedisURL,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		PoolSize:        cfg.Cache.PoolSize,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer cacheProvider.Close()

	// Services
	versionService := services.NewVersionService(driveClient, driveClient, store, cacheProvider, cfg.Cache.TTL, logger)
	commentService := services.NewCommentService(store, logger)
	browseService := services.NewBrowseService(driveClient, cacheProvider, cfg.Cache.TTL, logger)

	handler := router.New(router.Dependencies{
		Versions: versionService,
		Comments: commentService,
		Browse:   browseService,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("address", server.Addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		logger.Info("Server shutdown completed")
	}
}

// initLogger initializes the structured logger based on environment
func initLogger() (*zap.Logger, error) {
	env := os.Getenv("GO_ENV")
	var cfg zap.Config

	switch env {
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "staging":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
