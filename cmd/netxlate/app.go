package main

import (
	"os"

	"netxlate/internal/backend"
	"netxlate/internal/catalog"
	"netxlate/internal/config"
	"netxlate/internal/core"
	logpkg "netxlate/internal/log"
	"netxlate/internal/model"
	"netxlate/internal/update"
)

// app holds the engine pieces the commands share. Fields already set
// are kept by load, which lets tests inject fakes.
type app struct {
	verbose bool

	logger   core.Logger
	cfg      config.Config
	catalog  *catalog.Catalog
	registry *model.Registry
	invoker  core.Invoker
	updates  *update.Checker
}

func (a *app) load() error {
	if a.logger == nil {
		a.logger = logpkg.New(os.Stderr, a.verbose)
	}
	if err := config.LoadDotEnv(); err != nil {
		a.logger.Warn("Ignoring .env: %v", err)
	}

	var cfgLogger core.Logger = &core.NopLogger{}
	if a.verbose {
		cfgLogger = a.logger
	}
	cfg, err := config.Load(cfgLogger)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.catalog == nil {
		a.catalog = catalog.Default()
		if cfg.CatalogPath != "" {
			if a.catalog, err = catalog.Load(cfg.CatalogPath); err != nil {
				return err
			}
		}
	}
	if a.registry == nil {
		a.registry = model.LoadOrFallback(cfg.ModelsConfigPath, cfg.DefaultModel, a.logger)
	}

	httpClient := cfg.HTTPClientSettings.NewClient()
	if a.invoker == nil {
		a.invoker = backend.NewClient(backend.Config{
			Registry:   a.registry,
			HTTPClient: httpClient,
			Credential: cfg.Credential,
			Logger:     a.logger,
		})
	}
	if a.updates == nil {
		a.updates = update.NewChecker(update.Config{
			Repo:       cfg.UpdateRepo,
			HTTPClient: httpClient,
			Logger:     a.logger,
		})
	}
	return nil
}
