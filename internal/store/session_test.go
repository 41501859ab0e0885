package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/utils"
)

type countingClearer struct{ n int }

func (c *countingClearer) Clear() { c.n++ }

func TestSessionValidatesBeforeAuth(t *testing.T) {
	auth := newFakeAuth()
	s := NewSession(auth, language.English, utils.NewDiscardLogger())
	ctx := context.Background()

	_, err := s.SignIn(ctx, "not-an-email", "secret1")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.SignUp(ctx, "ana@example.com", "123")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "The password is too weak", s.Message(err))

	assert.Zero(t, auth.calls)
}

func TestSessionSignInMessages(t *testing.T) {
	auth := newFakeAuth()
	s := NewSession(auth, language.BrazilianPortuguese, utils.NewDiscardLogger())
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	_, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "id-ana@example.com", s.UserID())
	assert.Equal(t, "ana@example.com", s.Email())

	_, err = s.SignUp(ctx, "ana@example.com", "secret1")
	assert.Equal(t, "Este email já está registrado", s.Message(err))

	_, err = s.SignIn(ctx, "ana@example.com", "wrong-password")
	assert.Equal(t, "Email ou senha incorretos", s.Message(err))
}

func TestSignOutClearsStores(t *testing.T) {
	auth := newFakeAuth()
	s := NewSession(auth, language.English, utils.NewDiscardLogger())
	ctx := context.Background()

	catalog := new(mockCatalog)
	catalog.On("MovieDetails", mock.Anything, 550).Return(&models.Movie{ID: 550}, nil)
	movies := NewMovieStore(catalog, utils.NewDiscardLogger())
	profiles := NewProfileStore(newFakeBackend(), s, ProfileOptions{Retry: utils.RetryConfig{Attempts: 1}}, utils.NewDiscardLogger())
	other := &countingClearer{}
	s.Register(movies, profiles, other)
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	_, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, profiles.AddToFavorites(ctx, 27205))
	movies.FetchMovieDetails(ctx, 550)
	catalog.AssertNumberOfCalls(t, "MovieDetails", 1)

	require.NoError(t, s.SignOut(ctx))

	assert.Nil(t, s.CurrentUser())
	assert.Empty(t, profiles.Favorites())
	assert.Equal(t, 1, other.n)
	assert.ErrorIs(t, profiles.AddToFavorites(ctx, 1), apperr.ErrNotAuthenticated)

	movies.FetchMovieDetails(ctx, 550)
	catalog.AssertNumberOfCalls(t, "MovieDetails", 2)
}

func TestSwitchingUserClearsStores(t *testing.T) {
	auth := newFakeAuth()
	s := NewSession(auth, language.English, utils.NewDiscardLogger())
	other := &countingClearer{}
	s.Register(other)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	_, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Zero(t, other.n)

	_, err = s.SignUp(ctx, "bia@example.com", "secret2")
	require.NoError(t, err)
	assert.Equal(t, 1, other.n)
	assert.Equal(t, "id-bia@example.com", s.UserID())
}

func TestSessionStartRestoresUser(t *testing.T) {
	auth := newFakeAuth()
	auth.current = &models.User{ID: "u9", Email: "restored@example.com"}
	s := NewSession(auth, language.English, utils.NewDiscardLogger())

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "u9", s.UserID())

	s.Stop()
	auth.notify(nil)
	assert.Equal(t, "u9", s.UserID())
}
