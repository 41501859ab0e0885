// Package store holds the in-memory state of a session: per-id caches of
// catalog entities, paged movie lists and the signed-in user's profile and
// relationship lists.
package store

import (
	"context"

	"github.com/amaumene/cinematch/internal/models"
)

// Catalog is the movie catalog the stores read from
type Catalog interface {
	CategoryPage(ctx context.Context, category models.Category, page int) (*models.MoviePage, error)
	Search(ctx context.Context, query string, page int) (*models.MoviePage, error)
	Discover(ctx context.Context, genreID, page int) (*models.MoviePage, error)
	MovieDetails(ctx context.Context, id int) (*models.Movie, error)
	MovieCredits(ctx context.Context, id int) (*models.MovieCredits, error)
	SimilarMovies(ctx context.Context, id int) (*models.MoviePage, error)
	PersonDetails(ctx context.Context, id int) (*models.Person, error)
	PersonMovieCredits(ctx context.Context, id int) (*models.PersonCredits, error)
	PersonImages(ctx context.Context, id int) (*models.PersonImages, error)
}

// Authenticator signs users in and out and reports auth state changes
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	CurrentUser(ctx context.Context) (*models.User, error)
	OnAuthStateChange(fn func(*models.User)) func()
}

// ProfileBackend persists profiles, avatars and relationship lists
type ProfileBackend interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	CreateProfile(ctx context.Context, profile *models.UserProfile) error
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error
	UploadAvatar(ctx context.Context, userID, filename string, data []byte) (string, error)

	ListMovies(ctx context.Context, userID string, kind models.ListKind) ([]int, error)
	AddMovie(ctx context.Context, userID string, kind models.ListKind, movieID int, rating *float64) error
	RemoveMovie(ctx context.Context, userID string, kind models.ListKind, movieID int) error
	UpdateRating(ctx context.Context, userID string, movieID int, rating float64) error
}

// Backend is a full backend platform
type Backend interface {
	Authenticator
	ProfileBackend
}

// UserSource reports the signed-in user, nil when signed out
type UserSource interface {
	CurrentUser() *models.User
}

// Clearer is a store that drops its state on sign-out
type Clearer interface {
	Clear()
}
