package store

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/cinematch/internal/models"
)

// MovieStore caches movie entities and holds the category and search lists
type MovieStore struct {
	catalog Catalog
	logger  *logrus.Logger

	details *EntityCache[*models.Movie]
	credits *EntityCache[*models.MovieCredits]
	similar *EntityCache[[]models.Movie]
	genres  *EntityCache[[]models.Movie]

	lists  map[models.Category]*PagedList
	search *SearchList
}

// NewMovieStore creates an empty store reading from catalog
func NewMovieStore(catalog Catalog, logger *logrus.Logger) *MovieStore {
	s := &MovieStore{
		catalog: catalog,
		logger:  logger,
		lists:   make(map[models.Category]*PagedList, len(models.Categories)),
	}

	s.details = NewEntityCache("movie_details", catalog.MovieDetails, logger)
	s.credits = NewEntityCache("movie_credits", catalog.MovieCredits, logger)
	s.similar = NewEntityCache("similar_movies", func(ctx context.Context, id int) ([]models.Movie, error) {
		page, err := catalog.SimilarMovies(ctx, id)
		if err != nil {
			return nil, err
		}
		return page.Results, nil
	}, logger)
	s.genres = NewEntityCache("genre_movies", func(ctx context.Context, id int) ([]models.Movie, error) {
		page, err := catalog.Discover(ctx, id, 1)
		if err != nil {
			return nil, err
		}
		return page.Results, nil
	}, logger)

	for _, c := range models.Categories {
		category := c
		s.lists[category] = NewPagedList(string(category), func(ctx context.Context, page int) (*models.MoviePage, error) {
			return catalog.CategoryPage(ctx, category, page)
		}, logger)
	}
	s.search = NewSearchList(catalog.Search, logger)

	return s
}

// FetchMovieDetails returns the details of a movie, nil on failure
func (s *MovieStore) FetchMovieDetails(ctx context.Context, id int) *models.Movie {
	movie, _ := s.details.Fetch(ctx, id)
	return movie
}

// FetchMovieCredits returns the cast and crew of a movie, nil on failure
func (s *MovieStore) FetchMovieCredits(ctx context.Context, id int) *models.MovieCredits {
	credits, _ := s.credits.Fetch(ctx, id)
	return credits
}

// FetchSimilarMovies returns movies similar to id, empty on failure
func (s *MovieStore) FetchSimilarMovies(ctx context.Context, id int) []models.Movie {
	movies, _ := s.similar.Fetch(ctx, id)
	return movies
}

// FetchGenreMovies returns the first discover page of a genre, empty on failure
func (s *MovieStore) FetchGenreMovies(ctx context.Context, genreID int) []models.Movie {
	movies, _ := s.genres.Fetch(ctx, genreID)
	return movies
}

// MovieDetails returns cached details without fetching
func (s *MovieStore) MovieDetails(id int) (*models.Movie, bool) { return s.details.Get(id) }

// IsLoadingDetails reports whether the details of id are being fetched
func (s *MovieStore) IsLoadingDetails(id int) bool { return s.details.IsLoading(id) }

// IsLoadingCredits reports whether the credits of id are being fetched
func (s *MovieStore) IsLoadingCredits(id int) bool { return s.credits.IsLoading(id) }

// List returns the paged list of a category
func (s *MovieStore) List(c models.Category) *PagedList {
	return s.lists[c]
}

// FetchCategory loads page 1 of a category if it is still empty
func (s *MovieStore) FetchCategory(ctx context.Context, c models.Category) {
	if l := s.lists[c]; l != nil {
		l.Fetch(ctx)
	}
}

// FetchMoreCategory appends the next page of a category
func (s *MovieStore) FetchMoreCategory(ctx context.Context, c models.Category) {
	if l := s.lists[c]; l != nil {
		l.FetchMore(ctx)
	}
}

// RefreshCategory reloads page 1 of a category
func (s *MovieStore) RefreshCategory(ctx context.Context, c models.Category) {
	if l := s.lists[c]; l != nil {
		l.Refresh(ctx)
	}
}

// Category returns the loaded movies of a category
func (s *MovieStore) Category(c models.Category) []models.Movie {
	if l := s.lists[c]; l != nil {
		return l.Movies()
	}
	return nil
}

// SearchMovies starts a new search; a blank query clears it
func (s *MovieStore) SearchMovies(ctx context.Context, query string) {
	s.search.Search(ctx, query)
}

// SearchMoreMovies appends the next page of the active search
func (s *MovieStore) SearchMoreMovies(ctx context.Context) {
	s.search.SearchMore(ctx)
}

// SearchResults returns the current search results
func (s *MovieStore) SearchResults() []models.Movie { return s.search.Movies() }

// SearchPage returns the last loaded search page
func (s *MovieStore) SearchPage() int { return s.search.Page() }

// SearchQuery returns the active query
func (s *MovieStore) SearchQuery() string { return s.search.Query() }

// Stats reports cache sizes and list lengths
func (s *MovieStore) Stats() map[string]int {
	stats := map[string]int{
		"movie_details":  s.details.Len(),
		"movie_credits":  s.credits.Len(),
		"similar_movies": s.similar.Len(),
		"genre_movies":   s.genres.Len(),
		"search":         len(s.search.Movies()),
	}
	for c, l := range s.lists {
		stats["list_"+string(c)] = l.Len()
	}
	return stats
}

// Clear drops every cached movie, list and search
func (s *MovieStore) Clear() {
	s.details.Clear()
	s.credits.Clear()
	s.similar.Clear()
	s.genres.Clear()
	for _, l := range s.lists {
		l.Reset()
	}
	s.search.Reset()
	s.logger.Debug("Movie caches cleared")
}
