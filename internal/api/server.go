package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/cinematch/internal/api/handlers"
	"github.com/amaumene/cinematch/internal/api/middleware"
	"github.com/amaumene/cinematch/internal/config"
	"github.com/amaumene/cinematch/internal/store"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	movies   *store.MovieStore
	people   *store.PersonStore
	profiles *store.ProfileStore
	session  *store.Session
	logger   *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	movies *store.MovieStore,
	people *store.PersonStore,
	profiles *store.ProfileStore,
	session *store.Session,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		movies:   movies,
		people:   people,
		profiles: profiles,
		session:  session,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger))
	s.setupRoutes(r, cfg)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(r chi.Router, cfg *config.Config) {
	lang := cfg.Locale()

	// Health, status and metrics
	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(s.logger))
	r.Method(http.MethodGet, "/status", handlers.NewStatusHandler(s.movies, s.people, s.profiles, s.session, s.logger))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Catalog
	moviesHandler := handlers.NewMoviesHandler(s.movies, s.profiles, lang, s.logger)
	r.Get("/movies/{category}", moviesHandler.Category)
	r.Get("/genre/{id}", moviesHandler.Genre)
	r.Get("/movie/{id}", moviesHandler.Movie)
	r.Get("/search", moviesHandler.Search)

	peopleHandler := handlers.NewPeopleHandler(s.people, lang, s.logger)
	r.Get("/person/{id}", peopleHandler.Person)

	// Profile and relationship lists
	profileHandler := handlers.NewProfileHandler(s.profiles, lang, s.logger)
	r.Route("/profile", func(r chi.Router) {
		r.Get("/", profileHandler.Get)
		r.Put("/genres", profileHandler.Genres)
		r.Post("/{kind}/{movieID}", profileHandler.Add)
		r.Delete("/{kind}/{movieID}", profileHandler.Remove)
	})
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
