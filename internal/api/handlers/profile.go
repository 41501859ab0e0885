package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/store"
)

// ProfileHandler serves the signed-in user's profile and lists
type ProfileHandler struct {
	profiles *store.ProfileStore
	lang     language.Tag
	logger   *logrus.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *store.ProfileStore, lang language.Tag, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, lang: lang, logger: logger}
}

// ProfileResponse is the profile with its three lists
type ProfileResponse struct {
	Profile   *models.UserProfile `json:"profile"`
	Watched   []int               `json:"watched"`
	Favorites []int               `json:"favorites"`
	Watchlist []int               `json:"watchlist"`
}

func (h *ProfileHandler) snapshot() ProfileResponse {
	orEmpty := func(ids []int) []int {
		if ids == nil {
			return []int{}
		}
		return ids
	}
	return ProfileResponse{
		Profile:   h.profiles.Profile(),
		Watched:   orEmpty(h.profiles.Watched()),
		Favorites: orEmpty(h.profiles.Favorites()),
		Watchlist: orEmpty(h.profiles.Watchlist()),
	}
}

// Get handles GET /profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := h.profiles.FetchProfile(r.Context()); err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}
	if err := h.profiles.FetchLists(r.Context()); err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

// Add handles POST /profile/{kind}/{movieID}[?rating=8.5]
func (h *ProfileHandler) Add(w http.ResponseWriter, r *http.Request) {
	kind, id, err := listTarget(r)
	if err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}

	switch kind {
	case models.ListWatched:
		var rating *float64
		if raw := r.URL.Query().Get("rating"); raw != "" {
			v, perr := strconv.ParseFloat(raw, 64)
			if perr != nil {
				writeError(w, h.logger, h.lang, apperr.New(apperr.KindValidation, "parse rating", fmt.Errorf("invalid rating %q", raw)))
				return
			}
			rating = &v
		}
		err = h.profiles.AddToWatched(r.Context(), id, rating)
	case models.ListFavorite:
		err = h.profiles.AddToFavorites(r.Context(), id)
	case models.ListWatchlist:
		err = h.profiles.AddToWatchlist(r.Context(), id)
	}
	if err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"list": kind, "movie_id": id}).Info("Movie added to list")
	writeJSON(w, http.StatusOK, h.snapshot())
}

// Remove handles DELETE /profile/{kind}/{movieID}
func (h *ProfileHandler) Remove(w http.ResponseWriter, r *http.Request) {
	kind, id, err := listTarget(r)
	if err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}

	switch kind {
	case models.ListWatched:
		err = h.profiles.RemoveFromWatched(r.Context(), id)
	case models.ListFavorite:
		err = h.profiles.RemoveFromFavorites(r.Context(), id)
	case models.ListWatchlist:
		err = h.profiles.RemoveFromWatchlist(r.Context(), id)
	}
	if err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"list": kind, "movie_id": id}).Info("Movie removed from list")
	writeJSON(w, http.StatusOK, h.snapshot())
}

// GenresRequest is the body of PUT /profile/genres
type GenresRequest struct {
	Genres []int `json:"genres"`
}

// Genres handles PUT /profile/genres
func (h *ProfileHandler) Genres(w http.ResponseWriter, r *http.Request) {
	var req GenresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, h.lang, apperr.New(apperr.KindValidation, "decode genres", err))
		return
	}

	if err := h.profiles.UpdateFavoriteGenres(r.Context(), req.Genres); err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

func listTarget(r *http.Request) (models.ListKind, int, error) {
	kind, err := models.ParseListKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", 0, apperr.New(apperr.KindValidation, "parse list", err)
	}
	id, err := pathID(r, "movieID")
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}
