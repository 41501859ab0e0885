//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/amaumene/cinematch/internal/services/tmdb"
	"github.com/amaumene/cinematch/internal/store"
)

func initializeApp() (*App, func(), error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideCatalog,
		provideBackend,
		provideAuthenticator,
		provideProfileBackend,
		provideLanguage,
		provideProfileOptions,
		wire.Bind(new(store.Catalog), new(*tmdb.Client)),
		wire.Bind(new(store.UserSource), new(*store.Session)),
		store.NewMovieStore,
		store.NewPersonStore,
		store.NewSession,
		store.NewProfileStore,
		newApp,
	)
	return nil, nil, nil
}
