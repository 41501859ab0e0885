package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/metrics"
	"github.com/amaumene/cinematch/internal/models"
)

var errEmptyPage = errors.New("empty page")

// PageLoader fetches one page of a movie list
type PageLoader func(ctx context.Context, page int) (*models.MoviePage, error)

// PagedList is an ordered movie list grown one page at a time. Pages that
// arrive after a Reset are dropped.
type PagedList struct {
	name   string
	load   PageLoader
	logger *logrus.Logger

	mu         sync.Mutex
	movies     []models.Movie
	page       int
	totalPages int
	loading    bool
	seq        int
}

// NewPagedList creates an empty list on page 1
func NewPagedList(name string, load PageLoader, logger *logrus.Logger) *PagedList {
	return &PagedList{
		name:   name,
		load:   load,
		logger: logger,
		page:   1,
	}
}

// Fetch loads page 1 unless the list already has results or is loading
func (l *PagedList) Fetch(ctx context.Context) {
	l.mu.Lock()
	if len(l.movies) > 0 || l.loading {
		l.mu.Unlock()
		metrics.ListFetches.WithLabelValues(l.name, "fetch", metrics.ResultSkipped).Inc()
		return
	}
	l.loading = true
	seq := l.seq
	l.mu.Unlock()

	l.replace(ctx, "fetch", seq)
}

// Refresh reloads page 1 and replaces the results
func (l *PagedList) Refresh(ctx context.Context) {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		metrics.ListFetches.WithLabelValues(l.name, "refresh", metrics.ResultSkipped).Inc()
		return
	}
	l.loading = true
	seq := l.seq
	l.mu.Unlock()

	l.replace(ctx, "refresh", seq)
}

func (l *PagedList) replace(ctx context.Context, op string, seq int) {
	page, err := l.load(ctx, 1)
	if err == nil && page == nil {
		err = apperr.New(apperr.KindServer, l.name+"."+op, errEmptyPage)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return
	}
	l.loading = false

	if err != nil {
		l.failed(op, 1, err)
		return
	}
	l.movies = append([]models.Movie(nil), page.Results...)
	l.page = 1
	l.totalPages = page.TotalPages
	metrics.ListFetches.WithLabelValues(l.name, op, metrics.ResultSuccess).Inc()
}

// FetchMore appends the next page. The cursor only advances on success.
func (l *PagedList) FetchMore(ctx context.Context) {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		metrics.ListFetches.WithLabelValues(l.name, "more", metrics.ResultSkipped).Inc()
		return
	}
	l.loading = true
	seq := l.seq
	next := l.page + 1
	l.mu.Unlock()

	page, err := l.load(ctx, next)
	if err == nil && page == nil {
		err = apperr.New(apperr.KindServer, l.name+".more", errEmptyPage)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return
	}
	l.loading = false

	if err != nil {
		l.failed("more", next, err)
		return
	}
	l.movies = append(l.movies, page.Results...)
	l.page = next
	l.totalPages = page.TotalPages
	metrics.ListFetches.WithLabelValues(l.name, "more", metrics.ResultSuccess).Inc()
}

// Movies returns a copy of the loaded results
func (l *PagedList) Movies() []models.Movie {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Movie(nil), l.movies...)
}

// Page returns the last loaded page number
func (l *PagedList) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// TotalPages returns the page count reported by the catalog
func (l *PagedList) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalPages
}

// IsLoading reports whether a page is in flight
func (l *PagedList) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Len returns the number of loaded results
func (l *PagedList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.movies)
}

// Reset empties the list and rewinds it to page 1
func (l *PagedList) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.loading = false
	l.movies = nil
	l.page = 1
	l.totalPages = 0
}

// failed must be called with l.mu held
func (l *PagedList) failed(op string, page int, err error) {
	kind := apperr.Classify(err)
	metrics.ListFetches.WithLabelValues(l.name, op, metrics.ResultFailure).Inc()
	metrics.FetchFailures.WithLabelValues(l.name, string(kind)).Inc()
	l.logger.WithFields(logrus.Fields{
		"op":   l.name + "." + op,
		"kind": kind,
		"page": page,
	}).WithError(err).Warn("Failed to fetch list page")
}

// SearchLoader fetches one page of search results
type SearchLoader func(ctx context.Context, query string, page int) (*models.MoviePage, error)

// SearchList holds the results of the active search query. Results without
// a poster are left out.
type SearchList struct {
	load   SearchLoader
	logger *logrus.Logger

	mu      sync.Mutex
	query   string
	movies  []models.Movie
	page    int
	loading bool
	seq     int
}

// NewSearchList creates an empty search
func NewSearchList(load SearchLoader, logger *logrus.Logger) *SearchList {
	return &SearchList{load: load, logger: logger, page: 1}
}

// Search replaces the results with page 1 of query. A blank query clears
// the search. A response for a query that was superseded is dropped.
func (s *SearchList) Search(ctx context.Context, query string) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if query == "" {
		s.query = ""
		s.movies = nil
		s.page = 1
		s.loading = false
		s.mu.Unlock()
		return
	}
	s.query = query
	s.loading = true
	s.mu.Unlock()

	page, err := s.load(ctx, query, 1)
	if err == nil && page == nil {
		err = apperr.New(apperr.KindServer, "search.search", errEmptyPage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return
	}
	s.loading = false

	if err != nil {
		s.failed("search", query, 1, err)
		return
	}
	s.movies = withPoster(nil, page.Results)
	s.page = 1
	metrics.ListFetches.WithLabelValues("search", "search", metrics.ResultSuccess).Inc()
}

// SearchMore appends the next page of the active query
func (s *SearchList) SearchMore(ctx context.Context) {
	s.mu.Lock()
	if s.query == "" || s.loading {
		s.mu.Unlock()
		metrics.ListFetches.WithLabelValues("search", "more", metrics.ResultSkipped).Inc()
		return
	}
	s.loading = true
	seq := s.seq
	query := s.query
	next := s.page + 1
	s.mu.Unlock()

	page, err := s.load(ctx, query, next)
	if err == nil && page == nil {
		err = apperr.New(apperr.KindServer, "search.more", errEmptyPage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return
	}
	s.loading = false

	if err != nil {
		s.failed("more", query, next, err)
		return
	}
	s.movies = withPoster(s.movies, page.Results)
	s.page = next
	metrics.ListFetches.WithLabelValues("search", "more", metrics.ResultSuccess).Inc()
}

// Query returns the active query
func (s *SearchList) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Movies returns a copy of the results
func (s *SearchList) Movies() []models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Movie(nil), s.movies...)
}

// Page returns the last loaded page
func (s *SearchList) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// IsLoading reports whether a search page is in flight
func (s *SearchList) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Reset drops the query and results
func (s *SearchList) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.query = ""
	s.movies = nil
	s.page = 1
	s.loading = false
}

func (s *SearchList) failed(op, query string, page int, err error) {
	kind := apperr.Classify(err)
	metrics.ListFetches.WithLabelValues("search", op, metrics.ResultFailure).Inc()
	metrics.FetchFailures.WithLabelValues("search", string(kind)).Inc()
	s.logger.WithFields(logrus.Fields{
		"op":    "search." + op,
		"kind":  kind,
		"query": query,
		"page":  page,
	}).WithError(err).Warn("Failed to search movies")
}

func withPoster(dst, movies []models.Movie) []models.Movie {
	for _, m := range movies {
		if m.HasPoster() {
			dst = append(dst, m)
		}
	}
	return dst
}
