package handlers

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/services/tmdb"
	"github.com/amaumene/cinematch/internal/store"
)

const filmographyLimit = 20

// PeopleHandler serves person pages
type PeopleHandler struct {
	people *store.PersonStore
	lang   language.Tag
	logger *logrus.Logger
}

// NewPeopleHandler creates a new people handler
func NewPeopleHandler(people *store.PersonStore, lang language.Tag, logger *logrus.Logger) *PeopleHandler {
	return &PeopleHandler{people: people, lang: lang, logger: logger}
}

// PersonResponse is everything shown on a person page
type PersonResponse struct {
	models.Person
	ProfileURL  string                    `json:"profile_url"`
	Filmography []models.FilmographyEntry `json:"filmography"`
	Images      []string                  `json:"images"`
}

// Person handles GET /person/{id}
func (h *PeopleHandler) Person(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, h.lang, err)
		return
	}

	person := h.people.FetchPersonDetails(r.Context(), id)
	if person == nil {
		writeError(w, h.logger, h.lang, apperr.New(apperr.KindNotFound, "person.details", fmt.Errorf("person %d not found", id)))
		return
	}

	response := PersonResponse{
		Person:      *person,
		ProfileURL:  tmdb.ProfileURL(person.ProfilePath, tmdb.ProfileLarge),
		Filmography: []models.FilmographyEntry{},
		Images:      []string{},
	}
	if credits := h.people.FetchPersonCredits(r.Context(), id); credits != nil {
		response.Filmography = credits.Filmography(filmographyLimit)
	}
	if images := h.people.FetchPersonImages(r.Context(), id); images != nil {
		for _, img := range images.Profiles {
			path := img.FilePath
			response.Images = append(response.Images, tmdb.ImageURL(&path, tmdb.ProfileMedium))
		}
	}

	writeJSON(w, http.StatusOK, response)
}
