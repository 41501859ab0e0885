package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/amaumene/cinematch/internal/models"
)

type listEndpoint struct {
	path   string
	region bool
}

var categoryEndpoints = map[models.Category]listEndpoint{
	models.CategoryPopular:      {path: "/movie/popular", region: true},
	models.CategoryTrendingDay:  {path: "/trending/movie/day"},
	models.CategoryTrendingWeek: {path: "/trending/movie/week"},
	models.CategoryNowPlaying:   {path: "/movie/now_playing", region: true},
	models.CategoryUpcoming:     {path: "/movie/upcoming", region: true},
	models.CategoryTopRated:     {path: "/movie/top_rated", region: true},
}

// CategoryPage fetches one page of a browsing category
func (c *Client) CategoryPage(ctx context.Context, category models.Category, page int) (*models.MoviePage, error) {
	endpoint, ok := categoryEndpoints[category]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	params := c.localized(endpoint.region)
	setPage(params, page)

	var result models.MoviePage
	if err := c.doRequest(ctx, "movies."+string(category), endpoint.path, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Discover returns movies of a genre
func (c *Client) Discover(ctx context.Context, genreID, page int) (*models.MoviePage, error) {
	params := c.localized(true)
	params.Set("with_genres", strconv.Itoa(genreID))
	setPage(params, page)

	var result models.MoviePage
	if err := c.doRequest(ctx, "movies.discover", "/discover/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search runs a free-text movie search
func (c *Client) Search(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	params := c.localized(false)
	params.Set("query", query)
	setPage(params, page)

	var result models.MoviePage
	if err := c.doRequest(ctx, "movies.search", "/search/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MovieDetails fetches the full record of a movie
func (c *Client) MovieDetails(ctx context.Context, id int) (*models.Movie, error) {
	var movie models.Movie
	if err := c.doRequest(ctx, "movie.details", fmt.Sprintf("/movie/%d", id), c.localized(false), &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// MovieCredits fetches the cast and crew of a movie
func (c *Client) MovieCredits(ctx context.Context, id int) (*models.MovieCredits, error) {
	var credits models.MovieCredits
	if err := c.doRequest(ctx, "movie.credits", fmt.Sprintf("/movie/%d/credits", id), c.localized(false), &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// SimilarMovies fetches the first page of movies similar to id
func (c *Client) SimilarMovies(ctx context.Context, id int) (*models.MoviePage, error) {
	var result models.MoviePage
	if err := c.doRequest(ctx, "movie.similar", fmt.Sprintf("/movie/%d/similar", id), c.localized(false), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func setPage(params url.Values, page int) {
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
}
