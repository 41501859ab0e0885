package handlers

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/apperr"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusOf maps an error to the HTTP status reported for it
func StatusOf(err error) int {
	if errors.Is(err, apperr.ErrAlreadyWatched) {
		return http.StatusConflict
	}
	switch apperr.Classify(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindPermission:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNetwork, apperr.KindServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *logrus.Logger, lang language.Tag, err error) {
	status := StatusOf(err)
	kind := apperr.Classify(err)
	if status >= http.StatusInternalServerError {
		logger.WithField("kind", kind).WithError(err).Error("Request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: apperr.UserMessage(lang, err), Kind: kind})
}

func truthy(v string) bool {
	return v == "1" || v == "true" || v == "yes"
}
