package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/store"
)

// StatusHandler reports the state of the in-memory stores
type StatusHandler struct {
	movies   *store.MovieStore
	people   *store.PersonStore
	profiles *store.ProfileStore
	session  *store.Session
	logger   *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(movies *store.MovieStore, people *store.PersonStore, profiles *store.ProfileStore, session *store.Session, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		movies:   movies,
		people:   people,
		profiles: profiles,
		session:  session,
		logger:   logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	SignedIn  bool           `json:"signed_in"`
	UserID    string         `json:"user_id,omitempty"`
	Caches    map[string]int `json:"caches"`
	Lists     map[string]int `json:"lists"`
	LastError string         `json:"last_error,omitempty"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		UserID:    h.session.UserID(),
		Caches:    h.movies.Stats(),
		Lists:     make(map[string]int, len(models.ListKinds)),
		LastError: h.profiles.LastError(),
	}
	response.SignedIn = response.UserID != ""

	for k, v := range h.people.Stats() {
		response.Caches[k] = v
	}
	for _, kind := range models.ListKinds {
		response.Lists[string(kind)] = len(h.profiles.IDs(kind))
	}

	writeJSON(w, http.StatusOK, response)
}
