package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"foodgram/config"
	"foodgram/internal/database"
	"foodgram/internal/logger"
	"foodgram/internal/server"
	"foodgram/internal/service"
)

func main() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	log := logger.L()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient, err := connectRedis(cfg)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		log.Warn("Redis not configured, login rate limiting disabled")
	}

	images, err := buildImageStore(cfg)
	if err != nil {
		log.Fatal("failed to initialize image storage", zap.Error(err))
	}

	srv := server.New(cfg, db, redisClient, images)

	errChan := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.ServerHost+":"+cfg.ServerPort))
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		log.Info("received signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
}

func connectRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	return database.NewRedisClient(cfg)
}

func buildImageStore(cfg *config.Config) (service.ImageStore, error) {
	if cfg.StorageBackend == "s3" {
		s3cfg, err := config.NewS3Config(context.Background(), cfg.S3Bucket)
		if err != nil {
			return nil, err
		}
		return service.NewS3Store(s3cfg), nil
	}
	return service.NewLocalStore(cfg.MediaRoot, cfg.BaseURL), nil
}
