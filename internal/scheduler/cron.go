package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/store"
)

// CategoryRefresher reloads the first page of a category list
type CategoryRefresher interface {
	RefreshCategory(ctx context.Context, c models.Category)
	Category(c models.Category) []models.Movie
}

// ListSyncer reloads the signed-in user's relationship lists
type ListSyncer interface {
	FetchLists(ctx context.Context) error
}

// HomeCategories are the lists shown on the home screen
var HomeCategories = []models.Category{
	models.CategoryPopular,
	models.CategoryTrendingWeek,
	models.CategoryNowPlaying,
	models.CategoryUpcoming,
	models.CategoryTopRated,
}

const listSyncSpec = "0 * * * *"

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron       *cron.Cron
	movies     CategoryRefresher
	lists      ListSyncer
	refresh    string
	jobTimeout time.Duration
	logger     *logrus.Logger
}

// NewScheduler creates a new scheduler. lists may be nil.
func NewScheduler(movies CategoryRefresher, lists ListSyncer, refreshSpec string, jobTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		movies:     movies,
		lists:      lists,
		refresh:    refreshSpec,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start starts the scheduler and warms the home categories up
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Home categories
	if _, err := s.cron.AddFunc(s.refresh, s.runRefresh); err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	// Every hour: reload the relationship lists of the signed-in user
	if s.lists != nil {
		if _, err := s.cron.AddFunc(listSyncSpec, s.runListSync); err != nil {
			return fmt.Errorf("failed to add list sync job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.WithField("refresh", s.refresh).Info("Scheduler started")

	go s.runRefresh()

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// runRefresh reloads every home category
func (s *Scheduler) runRefresh() {
	s.logger.Info("Running scheduled category refresh")
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	failed := 0
	for _, c := range HomeCategories {
		s.movies.RefreshCategory(ctx, c)
		if len(s.movies.Category(c)) == 0 {
			failed++
		}
	}

	if failed > 0 {
		s.logger.WithField("empty", failed).Warn("Category refresh left lists empty")
	} else {
		s.logger.WithField("categories", len(HomeCategories)).Info("Category refresh completed successfully")
	}
}

// runListSync reloads the user's lists when someone is signed in
func (s *Scheduler) runListSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	err := s.lists.FetchLists(ctx)
	switch {
	case store.IsNotAuthenticated(err):
		s.logger.Debug("No signed-in user, skipping list sync")
	case err != nil:
		s.logger.WithError(err).Error("List sync job failed")
	default:
		s.logger.Info("List sync job completed successfully")
	}
}
