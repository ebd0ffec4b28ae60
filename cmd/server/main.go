package main

import (
	"os"

	"netxlate/internal/catalog"
	"netxlate/internal/config"
	logpkg "netxlate/internal/log"
	"netxlate/internal/model"
	"netxlate/internal/server"
	"netxlate/internal/storage"
)

func main() {
	dotenvErr := config.LoadDotEnv()

	logger := logpkg.Open(os.Getenv("DEBUG_FILE"), logpkg.IsDebug(os.Getenv("GIN_MODE")))
	defer func() { _ = logger.Close() }()

	if dotenvErr != nil {
		logger.Warn("Ignoring .env: %v", dotenvErr)
	}
	logger.Info("Logger initialized")

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			logger.Fatal("Failed to load vendor catalog: %v", err)
		}
		cat = loaded
	}

	registry := model.LoadOrFallback(cfg.ModelsConfigPath, cfg.DefaultModel, logger)

	storageInstance := storage.Init(cfg.RedisURL, cfg.StatsFile, logger)
	defer func() { _ = storageInstance.Close() }()

	srv, err := server.NewServer(cfg, server.Deps{
		Catalog:  cat,
		Registry: registry,
		Storage:  storageInstance,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to create server: %v", err)
	}
	defer func() { _ = srv.Close() }()

	if err := srv.Run(); err != nil {
		logger.Fatal("Server error: %v", err)
	}
}
