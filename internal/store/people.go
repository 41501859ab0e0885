package store

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/cinematch/internal/models"
)

// PersonStore caches people, their movie credits and profile pictures
type PersonStore struct {
	logger *logrus.Logger

	details *EntityCache[*models.Person]
	credits *EntityCache[*models.PersonCredits]
	images  *EntityCache[*models.PersonImages]
}

// NewPersonStore creates an empty store reading from catalog
func NewPersonStore(catalog Catalog, logger *logrus.Logger) *PersonStore {
	return &PersonStore{
		logger:  logger,
		details: NewEntityCache("person_details", catalog.PersonDetails, logger),
		credits: NewEntityCache("person_credits", catalog.PersonMovieCredits, logger),
		images:  NewEntityCache("person_images", catalog.PersonImages, logger),
	}
}

// FetchPersonDetails returns a person, nil on failure
func (s *PersonStore) FetchPersonDetails(ctx context.Context, id int) *models.Person {
	person, _ := s.details.Fetch(ctx, id)
	return person
}

// FetchPersonCredits returns the movie credits of a person, nil on failure
func (s *PersonStore) FetchPersonCredits(ctx context.Context, id int) *models.PersonCredits {
	credits, _ := s.credits.Fetch(ctx, id)
	return credits
}

// FetchPersonImages returns the profile pictures of a person, nil on failure
func (s *PersonStore) FetchPersonImages(ctx context.Context, id int) *models.PersonImages {
	images, _ := s.images.Fetch(ctx, id)
	return images
}

// IsLoadingDetails reports whether the person id is being fetched
func (s *PersonStore) IsLoadingDetails(id int) bool { return s.details.IsLoading(id) }

// Stats reports cache sizes
func (s *PersonStore) Stats() map[string]int {
	return map[string]int{
		"person_details": s.details.Len(),
		"person_credits": s.credits.Len(),
		"person_images":  s.images.Len(),
	}
}

// Clear drops every cached person
func (s *PersonStore) Clear() {
	s.details.Clear()
	s.credits.Clear()
	s.images.Clear()
	s.logger.Debug("Person caches cleared")
}
