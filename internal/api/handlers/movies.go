package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/services/tmdb"
	"github.com/amaumene/cinematch/internal/store"
)

// MoviesHandler serves catalog lists, movie pages and search
type MoviesHandler struct {
	movies   *store.MovieStore
	profiles *store.ProfileStore
	lang     language.Tag
	logger   *logrus.Logger
}

// NewMoviesHandler creates a new movies handler
func NewMoviesHandler(movies *store.MovieStore, profiles *store.ProfileStore, lang language.Tag, logger *logrus.Logger) *MoviesHandler {
	return &MoviesHandler{
		movies:   movies,
		profiles: profiles,
		lang:     lang,
		logger:   logger,
	}
}

// ListResponse is a page of a movie list
type ListResponse struct {
	List    string         `json:"list"`
	Page    int            `json:"page"`
	Results []MovieSummary `json:"results"`
}

// MovieSummary is a movie with its image URLs resolved
type MovieSummary struct {
	models.Movie
	PosterURL   string `json:"poster_url"`
	BackdropURL string `json:"backdrop_url"`
}

func summarize(movies []models.Movie) []MovieSummary {
	out := make([]MovieSummary, 0, len(movies))
	for _, m := range movies {
		out = append(out, MovieSummary{
			Movie:       m,
			PosterURL:   tmdb.PosterURL(m.PosterPath, tmdb.PosterMedium),
			BackdropURL: tmdb.BackdropURL(m.BackdropPath, tmdb.BackdropMedium),
		})
	}
	return out
}

// Category handles GET /movies/{category}[?more=1]
func (h *MoviesHandler) Category(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, h.logger, h.lang, apperr.New(apperr.KindValidation, "movies.category", err))
		return
	}

	if truthy(r.URL.Query().Get("more")) {
		h.movies.FetchMoreCategory(r.Context(), category)
	} else {
		h.movies.FetchCategory(r.Context(), category)
	}

	writeJSON(w, http.StatusOK, ListResponse{
		List:    string(category),
		Page:    h.movies.List(category).Page(),
		Results: summarize(h.movies.Category(category)),
	})
}

// Genre handles GET /genre/{id}
func (h *MoviesHandler) Genre(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		List:    "genre_" + strconv.Itoa(id),
		Page:    1,
		Results: summarize(h.movies.FetchGenreMovies(r.Context(), id)),
	})
}

// MovieResponse is everything shown on a movie page
type MovieResponse struct {
	MovieSummary
	Credits   *models.MovieCredits `json:"credits,omitempty"`
	Directors []models.CrewMember  `json:"directors"`
	Similar   []MovieSummary       `json:"similar"`
	Watched   bool                 `json:"watched"`
	Favorite  bool                 `json:"favorite"`
	Watchlist bool                 `json:"watchlist"`
}

// Movie handles GET /movie/{id}
func (h *MoviesHandler) Movie(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}

	movie := h.movies.FetchMovieDetails(r.Context(), id)
	if movie == nil {
		writeError(w, h.logger, h.lang, apperr.New(apperr.KindNotFound, "movie.details", fmt.Errorf("movie %d not found", id)))
		return
	}

	response := MovieResponse{
		MovieSummary: summarize([]models.Movie{*movie})[0],
		Credits:      h.movies.FetchMovieCredits(r.Context(), id),
		Similar:      summarize(h.movies.FetchSimilarMovies(r.Context(), id)),
		Watched:      h.profiles.IsWatched(id),
		Favorite:     h.profiles.IsFavorite(id),
		Watchlist:    h.profiles.InWatchlist(id),
	}
	if response.Credits != nil {
		response.Directors = response.Credits.Directors()
	}

	writeJSON(w, http.StatusOK, response)
}

// SearchResponse is the state of the active search
type SearchResponse struct {
	Query   string         `json:"query"`
	Page    int            `json:"page"`
	Results []MovieSummary `json:"results"`
}

// Search handles GET /search?q=...[&more=1]
func (h *MoviesHandler) Search(w http.ResponseWriter, r *http.Request) {
	if truthy(r.URL.Query().Get("more")) {
		h.movies.SearchMoreMovies(r.Context())
	} else {
		h.movies.SearchMovies(r.Context(), r.URL.Query().Get("q"))
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   h.movies.SearchQuery(),
		Page:    h.movies.SearchPage(),
		Results: summarize(h.movies.SearchResults()),
	})
}

func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.KindValidation, "parse id", fmt.Errorf("invalid id %q", raw))
	}
	if id <= 0 {
		return 0, apperr.New(apperr.KindValidation, "parse id", errors.New("id must be positive"))
	}
	return id, nil
}
