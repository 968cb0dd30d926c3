package main

import (
	"context"
	"time"

	"mockai/internal/config"
	"mockai/internal/database"
	"mockai/internal/logger"
	"mockai/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	log.Info("Starting migration...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoDB, err := database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	names, err := repository.EnsureIndexes(ctx, mongoDB.Database)
	for _, name := range names {
		log.WithField("index", name).Info("Created index")
	}
	if err != nil {
		log.WithError(err).Error("Migration failed")
		return
	}

	log.Info("Migration completed successfully!")
}
