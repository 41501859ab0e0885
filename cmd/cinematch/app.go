package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/config"
	"github.com/amaumene/cinematch/internal/store"
)

// App is the application container built by initializeApp
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Session  *store.Session
	Movies   *store.MovieStore
	People   *store.PersonStore
	Profiles *store.ProfileStore
}

func newApp(
	cfg *config.Config,
	logger *logrus.Logger,
	session *store.Session,
	movies *store.MovieStore,
	people *store.PersonStore,
	profiles *store.ProfileStore,
) *App {
	session.Register(movies, people, profiles)
	return &App{
		Config:   cfg,
		Logger:   logger,
		Session:  session,
		Movies:   movies,
		People:   people,
		Profiles: profiles,
	}
}

// Start restores the signed-in user
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Start(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	return nil
}

// Stop unsubscribes the session
func (a *App) Stop() {
	a.Session.Stop()
}

// Locale is the language of user-facing messages
func (a *App) Locale() language.Tag {
	return a.Config.Locale()
}

// userError converts a store failure to the localized message shown to users
func (a *App) userError(err error) error {
	if err == nil {
		return nil
	}
	a.Logger.WithField("kind", apperr.Classify(err)).WithError(err).Debug("Command failed")
	return fmt.Errorf("%s", apperr.UserMessage(a.Locale(), err))
}

// authError converts an auth failure to its localized message
func (a *App) authError(err error) error {
	if err == nil {
		return nil
	}
	a.Logger.WithField("kind", apperr.Classify(err)).WithError(err).Debug("Auth command failed")
	return fmt.Errorf("%s", a.Session.Message(err))
}
