package main

import (
	"go.uber.org/zap"

	"foodgram/config"
	"foodgram/internal/database"
	"foodgram/internal/logger"
)

// One-shot schema migration, for deployments that migrate before rollout.
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
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migration complete")
}
