package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/utils"
)

func TestCategoryFetchMoreAppends(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("CategoryPage", mock.Anything, models.CategoryPopular, 1).Return(moviePage(1, 1, 20), nil).Once()
	catalog.On("CategoryPage", mock.Anything, models.CategoryPopular, 2).Return(moviePage(2, 21, 20), nil).Once()
	s := NewMovieStore(catalog, utils.NewDiscardLogger())
	ctx := context.Background()

	s.FetchCategory(ctx, models.CategoryPopular)
	require.Len(t, s.Category(models.CategoryPopular), 20)

	s.FetchMoreCategory(ctx, models.CategoryPopular)
	movies := s.Category(models.CategoryPopular)
	assert.Len(t, movies, 40)
	assert.Equal(t, 2, s.List(models.CategoryPopular).Page())
	assert.Equal(t, 40, movies[39].ID)
	catalog.AssertExpectations(t)
}

func TestCategoryFetchSkipsLoadedList(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("CategoryPage", mock.Anything, models.CategoryTopRated, 1).Return(moviePage(1, 1, 20), nil).Once()
	s := NewMovieStore(catalog, utils.NewDiscardLogger())

	s.FetchCategory(context.Background(), models.CategoryTopRated)
	s.FetchCategory(context.Background(), models.CategoryTopRated)

	catalog.AssertNumberOfCalls(t, "CategoryPage", 1)
	assert.Empty(t, s.Category(models.CategoryUpcoming))
}

func TestCategoryFailureKeepsList(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("CategoryPage", mock.Anything, models.CategoryNowPlaying, 1).Return(moviePage(1, 1, 20), nil).Once()
	catalog.On("CategoryPage", mock.Anything, models.CategoryNowPlaying, 2).Return(nil, errors.New("timeout")).Once()
	catalog.On("CategoryPage", mock.Anything, models.CategoryNowPlaying, 2).Return(moviePage(2, 21, 20), nil).Once()
	s := NewMovieStore(catalog, utils.NewDiscardLogger())
	ctx := context.Background()
	list := s.List(models.CategoryNowPlaying)

	s.FetchCategory(ctx, models.CategoryNowPlaying)
	s.FetchMoreCategory(ctx, models.CategoryNowPlaying)
	assert.Len(t, list.Movies(), 20)
	assert.Equal(t, 1, list.Page())
	assert.False(t, list.IsLoading())

	s.FetchMoreCategory(ctx, models.CategoryNowPlaying)
	assert.Len(t, list.Movies(), 40)
	assert.Equal(t, 2, list.Page())
}

func TestCategoryRefreshReplaces(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("CategoryPage", mock.Anything, models.CategoryTrendingDay, 1).Return(moviePage(1, 1, 20), nil).Once()
	catalog.On("CategoryPage", mock.Anything, models.CategoryTrendingDay, 2).Return(moviePage(2, 21, 20), nil).Once()
	catalog.On("CategoryPage", mock.Anything, models.CategoryTrendingDay, 1).Return(moviePage(1, 500, 20), nil).Once()
	s := NewMovieStore(catalog, utils.NewDiscardLogger())
	ctx := context.Background()

	s.FetchCategory(ctx, models.CategoryTrendingDay)
	s.FetchMoreCategory(ctx, models.CategoryTrendingDay)
	s.RefreshCategory(ctx, models.CategoryTrendingDay)

	movies := s.Category(models.CategoryTrendingDay)
	require.Len(t, movies, 20)
	assert.Equal(t, 500, movies[0].ID)
	assert.Equal(t, 1, s.List(models.CategoryTrendingDay).Page())
}

func TestSearchBlankQueryClears(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Search", mock.Anything, "inception", 1).Return(moviePage(1, 1, 20), nil).Once()
	s := NewMovieStore(catalog, utils.NewDiscardLogger())
	ctx := context.Background()

	s.SearchMovies(ctx, "inception")
	require.Len(t, s.SearchResults(), 20)

	s.SearchMovies(ctx, "   ")
	assert.Empty(t, s.SearchResults())
	assert.Equal(t, 1, s.SearchPage())
	assert.Empty(t, s.SearchQuery())

	s.SearchMoreMovies(ctx)
	catalog.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearchMoreAppendsNextPage(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Search", mock.Anything, "inception", 1).Return(moviePage(1, 1, 20), nil).Once()
	catalog.On("Search", mock.Anything, "inception", 2).Return(moviePage(2, 21, 20), nil).Once()
	s := NewMovieStore(catalog, utils.NewDiscardLogger())
	ctx := context.Background()

	s.SearchMovies(ctx, "inception")
	s.SearchMoreMovies(ctx)

	assert.Len(t, s.SearchResults(), 40)
	assert.Equal(t, 2, s.SearchPage())
	catalog.AssertExpectations(t)
}

func TestSearchDropsMoviesWithoutPoster(t *testing.T) {
	page := moviePage(1, 1, 3)
	page.Results[1].PosterPath = nil
	empty := ""
	page.Results[2].PosterPath = &empty

	catalog := new(mockCatalog)
	catalog.On("Search", mock.Anything, "matrix", 1).Return(page, nil).Once()
	s := NewMovieStore(catalog, utils.NewDiscardLogger())

	s.SearchMovies(context.Background(), "matrix")

	results := s.SearchResults()
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].ID)
}

func TestClearResetsEverything(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("MovieDetails", mock.Anything, 550).Return(&models.Movie{ID: 550}, nil).Twice()
	catalog.On("CategoryPage", mock.Anything, models.CategoryPopular, 1).Return(moviePage(1, 1, 20), nil).Once()
	catalog.On("Search", mock.Anything, "fight", 1).Return(moviePage(1, 1, 5), nil).Once()
	s := NewMovieStore(catalog, utils.NewDiscardLogger())
	ctx := context.Background()

	s.FetchMovieDetails(ctx, 550)
	s.FetchCategory(ctx, models.CategoryPopular)
	s.SearchMovies(ctx, "fight")

	s.Clear()
	assert.Empty(t, s.Category(models.CategoryPopular))
	assert.Empty(t, s.SearchResults())
	assert.Zero(t, s.Stats()["movie_details"])

	s.FetchMovieDetails(ctx, 550)
	catalog.AssertNumberOfCalls(t, "MovieDetails", 2)
}

func TestPagedListEmptyPageIsFailure(t *testing.T) {
	l := NewPagedList("popular", func(context.Context, int) (*models.MoviePage, error) {
		return nil, nil
	}, utils.NewDiscardLogger())
	ctx := context.Background()

	l.Fetch(ctx)
	l.FetchMore(ctx)

	assert.Zero(t, l.Len())
	assert.Equal(t, 1, l.Page())
	assert.False(t, l.IsLoading())
}

func TestPagedListResetDropsInFlightPage(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	l := NewPagedList("popular", func(_ context.Context, page int) (*models.MoviePage, error) {
		if page == 3 {
			close(entered)
			<-release
		}
		return moviePage(page, page*100, 20), nil
	}, utils.NewDiscardLogger())
	ctx := context.Background()

	l.Fetch(ctx)
	l.FetchMore(ctx)
	require.Equal(t, 2, l.Page())

	done := make(chan struct{})
	go func() {
		l.FetchMore(ctx)
		close(done)
	}()
	<-entered
	l.Reset()
	close(release)
	<-done

	assert.Zero(t, l.Len())
	assert.Equal(t, 1, l.Page())
	assert.False(t, l.IsLoading())

	l.Fetch(ctx)
	assert.Equal(t, 20, l.Len())
}

func TestSearchEmptyPageIsFailure(t *testing.T) {
	l := NewSearchList(func(context.Context, string, int) (*models.MoviePage, error) {
		return nil, nil
	}, utils.NewDiscardLogger())

	l.Search(context.Background(), "inception")

	assert.Empty(t, l.Movies())
	assert.False(t, l.IsLoading())
	assert.Equal(t, "inception", l.Query())
}
