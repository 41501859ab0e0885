package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/config"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/services/supabase"
	"github.com/amaumene/cinematch/internal/services/tmdb"
	"github.com/amaumene/cinematch/internal/store"
	"github.com/amaumene/cinematch/internal/utils"
)

var (
	_ store.Catalog = (*tmdb.Client)(nil)
	_ store.Backend = (*supabase.Client)(nil)
	_ store.Backend = (*models.Database)(nil)
)

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *logrus.Logger {
	logger := utils.NewLogger(cfg.LogLevel)
	logger.WithField("config_dir", cfg.ConfigDir).Debug("Configuration loaded")
	return logger
}

func provideCatalog(cfg *config.Config, logger *logrus.Logger) (*tmdb.Client, error) {
	client, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	return client, nil
}

// provideBackend opens the configured backend platform
func provideBackend(cfg *config.Config, logger *logrus.Logger) (store.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendLocal:
		db, err := models.NewDatabase(cfg.DatabaseFile, cfg.AvatarDir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.WithField("path", cfg.DatabaseFile).Debug("Local backend opened")
		return db, func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Error("Failed to close database")
			}
		}, nil
	default:
		client, err := supabase.NewClient(cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
		}
		return client, func() {}, nil
	}
}

func provideAuthenticator(backend store.Backend) store.Authenticator {
	return backend
}

func provideProfileBackend(backend store.Backend) store.ProfileBackend {
	return backend
}

func provideLanguage(cfg *config.Config) language.Tag {
	return cfg.Locale()
}

func provideProfileOptions(cfg *config.Config) store.ProfileOptions {
	return store.ProfileOptions{
		Language: cfg.Language,
		Locale:   cfg.Locale(),
		Retry: utils.RetryConfig{
			Attempts: cfg.ProfileRetryAttempts,
			Delay:    cfg.ProfileRetryDelay,
		},
	}
}
