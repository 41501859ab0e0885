package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/metrics"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/utils"
)

// ProfileOptions configures a ProfileStore
type ProfileOptions struct {
	Language string       // default app_settings.language of new profiles
	Locale   language.Tag // language of LastError messages
	Retry    utils.RetryConfig
}

// ProfileStore holds the signed-in user's profile and relationship lists.
// Mutations are persisted first and applied locally only once the backend
// accepted them. Every Clear starts a new generation; results of calls begun
// in an older generation are dropped.
type ProfileStore struct {
	backend ProfileBackend
	users   UserSource
	opts    ProfileOptions
	logger  *logrus.Logger

	mu             sync.Mutex
	gen            uint64
	profile        *models.UserProfile
	lists          map[models.ListKind][]int
	loaded         map[models.ListKind]bool
	loading        map[models.ListKind]bool
	profileLoading bool
	lastErr        string
}

// NewProfileStore creates an empty store
func NewProfileStore(backend ProfileBackend, users UserSource, opts ProfileOptions, logger *logrus.Logger) *ProfileStore {
	return &ProfileStore{
		backend: backend,
		users:   users,
		opts:    opts,
		logger:  logger,
		lists:   make(map[models.ListKind][]int),
		loaded:  make(map[models.ListKind]bool),
		loading: make(map[models.ListKind]bool),
	}
}

// begin returns the signed-in user and the current generation. The
// generation is read first: the session switches users before it clears the
// stores, so a user read afterwards always belongs to that generation.
func (s *ProfileStore) begin() (*models.User, uint64, error) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	user := s.users.CurrentUser()
	if user == nil {
		return nil, gen, apperr.ErrNotAuthenticated
	}
	return user, gen, nil
}

// fail classifies and logs err and records it as the last error
func (s *ProfileStore) fail(op string, err error, fields logrus.Fields) error {
	kind := apperr.Classify(err)
	entry := s.logger.WithField("op", op).WithField("kind", kind)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.WithError(err).Error("Profile operation failed")

	s.mu.Lock()
	s.lastErr = apperr.UserMessage(s.opts.Locale, err)
	s.mu.Unlock()
	return err
}

// stale logs a result dropped because the session changed mid-call
func (s *ProfileStore) stale(op string, user *models.User) error {
	s.logger.WithField("op", op).WithField("user_id", user.ID).Debug("Session changed, result dropped")
	return apperr.ErrNotAuthenticated
}

func (s *ProfileStore) clearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Profile operations

// FetchProfile loads the profile of the signed-in user, creating the
// default one on first use
func (s *ProfileStore) FetchProfile(ctx context.Context) (*models.UserProfile, error) {
	user, gen, err := s.begin()
	if err != nil {
		return nil, err
	}
	return s.fetchProfile(ctx, user, gen)
}

func (s *ProfileStore) fetchProfile(ctx context.Context, user *models.User, gen uint64) (*models.UserProfile, error) {
	s.mu.Lock()
	s.profileLoading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.gen == gen {
			s.profileLoading = false
		}
		s.mu.Unlock()
	}()

	profile, err := s.backend.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, s.fail("profile.fetch", err, logrus.Fields{"user_id": user.ID})
	}

	if profile == nil {
		profile, err = s.createProfile(ctx, user)
		if err != nil {
			return nil, s.fail("profile.create", err, logrus.Fields{"user_id": user.ID})
		}
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil, s.stale("profile.fetch", user)
	}
	s.profile = profile.Clone()
	s.lastErr = ""
	s.mu.Unlock()

	return profile, nil
}

// ensureProfile fetches the profile unless it is already loaded
func (s *ProfileStore) ensureProfile(ctx context.Context, user *models.User, gen uint64) error {
	s.mu.Lock()
	loaded := s.profile != nil && s.gen == gen
	s.mu.Unlock()
	if loaded {
		return nil
	}
	_, err := s.fetchProfile(ctx, user, gen)
	return err
}

func (s *ProfileStore) createProfile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	profile := models.NewDefaultProfile(user, s.opts.Language)

	_, err := utils.Retry(ctx, s.opts.Retry, s.logger, "profile.create", func(ctx context.Context) (struct{}, error) {
		err := s.backend.CreateProfile(ctx, profile)
		if err != nil && apperr.KindOf(err) == apperr.KindConflict {
			return struct{}{}, utils.Permanent(err)
		}
		return struct{}{}, err
	})

	if err != nil && apperr.KindOf(err) != apperr.KindConflict {
		return nil, err
	}
	if err != nil {
		// Created concurrently elsewhere.
		s.logger.WithField("user_id", user.ID).Info("Profile already exists, fetching it")
	} else {
		s.logger.WithField("user_id", user.ID).Info("Profile created")
	}

	created, err := s.backend.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return profile, nil
	}
	return created, nil
}

// UpdateProfile persists a partial update and merges it into the profile
func (s *ProfileStore) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	return s.updateProfile(ctx, user, gen, upd)
}

func (s *ProfileStore) updateProfile(ctx context.Context, user *models.User, gen uint64, upd models.ProfileUpdate) error {
	if err := s.backend.UpdateProfile(ctx, user.ID, upd); err != nil {
		return s.fail("profile.update", err, logrus.Fields{"user_id": user.ID})
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return s.stale("profile.update", user)
	}
	if s.profile != nil {
		upd.Apply(s.profile)
	}
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

// UpdateProfileImage uploads a new profile picture and points the profile at it
func (s *ProfileStore) UpdateProfileImage(ctx context.Context, filename string, data []byte) (string, error) {
	user, gen, err := s.begin()
	if err != nil {
		return "", err
	}

	url, err := s.backend.UploadAvatar(ctx, user.ID, filename, data)
	if err != nil {
		return "", s.fail("profile.avatar", err, logrus.Fields{"user_id": user.ID, "file": filename})
	}

	if err := s.updateProfile(ctx, user, gen, models.ProfileUpdate{ProfileURL: &url}); err != nil {
		return "", err
	}
	return url, nil
}

// UpdateFavoriteGenres replaces the favorite genres of the app settings
func (s *ProfileStore) UpdateFavoriteGenres(ctx context.Context, genreIDs []int) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	if err := s.ensureProfile(ctx, user, gen); err != nil {
		return err
	}

	s.mu.Lock()
	if s.gen != gen || s.profile == nil {
		s.mu.Unlock()
		return s.stale("profile.genres", user)
	}
	settings := s.profile.AppSettings
	s.mu.Unlock()
	settings.FavoriteGenres = append([]int{}, genreIDs...)

	return s.updateProfile(ctx, user, gen, models.ProfileUpdate{AppSettings: &settings})
}

// List fetching

// FetchWatched loads the watched list
func (s *ProfileStore) FetchWatched(ctx context.Context) error {
	return s.fetchOne(ctx, models.ListWatched)
}

// FetchFavorites loads the favorites list
func (s *ProfileStore) FetchFavorites(ctx context.Context) error {
	return s.fetchOne(ctx, models.ListFavorite)
}

// FetchWatchlist loads the watchlist
func (s *ProfileStore) FetchWatchlist(ctx context.Context) error {
	return s.fetchOne(ctx, models.ListWatchlist)
}

// FetchLists loads the three lists; the first error is returned
func (s *ProfileStore) FetchLists(ctx context.Context) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}

	var errs []error
	for _, kind := range models.ListKinds {
		if err := s.fetchList(ctx, user, gen, kind); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (s *ProfileStore) fetchOne(ctx context.Context, kind models.ListKind) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	return s.fetchList(ctx, user, gen, kind)
}

func (s *ProfileStore) fetchList(ctx context.Context, user *models.User, gen uint64, kind models.ListKind) error {
	s.mu.Lock()
	s.loading[kind] = true
	s.mu.Unlock()

	ids, err := s.backend.ListMovies(ctx, user.ID, kind)

	s.mu.Lock()
	current := s.gen == gen
	if current {
		s.loading[kind] = false
		if err == nil {
			s.lists[kind] = ids
			s.loaded[kind] = true
		}
	}
	s.mu.Unlock()

	if !current {
		metrics.ListFetches.WithLabelValues(string(kind), "fetch", metrics.ResultSkipped).Inc()
		return s.stale("list."+string(kind)+".fetch", user)
	}
	if err != nil {
		metrics.ListFetches.WithLabelValues(string(kind), "fetch", metrics.ResultFailure).Inc()
		return s.fail("list."+string(kind)+".fetch", err, logrus.Fields{"user_id": user.ID})
	}
	metrics.ListFetches.WithLabelValues(string(kind), "fetch", metrics.ResultSuccess).Inc()
	return nil
}

// ensureLists loads the given lists unless they were already loaded, so
// membership checks see the persisted state
func (s *ProfileStore) ensureLists(ctx context.Context, user *models.User, gen uint64, kinds ...models.ListKind) error {
	for _, kind := range kinds {
		s.mu.Lock()
		loaded := s.loaded[kind] && s.gen == gen
		s.mu.Unlock()
		if loaded {
			continue
		}
		if err := s.fetchList(ctx, user, gen, kind); err != nil {
			return err
		}
	}
	return nil
}

// Mutations

// AddToWatched marks a movie as watched. A movie already watched only gets
// its rating updated. A watched movie leaves the watchlist; if that removal
// fails the watched row is rolled back.
func (s *ProfileStore) AddToWatched(ctx context.Context, movieID int, rating *float64) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	if err := utils.ValidateMovieID(movieID); err != nil {
		return err
	}
	if err := utils.ValidateRating(rating); err != nil {
		return err
	}
	if err := s.ensureLists(ctx, user, gen, models.ListWatched, models.ListWatchlist); err != nil {
		return err
	}
	fields := logrus.Fields{"user_id": user.ID, "movie_id": movieID}

	if s.contains(models.ListWatched, movieID) {
		if rating == nil {
			s.mutated(models.ListWatched, "add", metrics.ResultSkipped)
			return nil
		}
		if err := s.backend.UpdateRating(ctx, user.ID, movieID, *rating); err != nil {
			s.mutated(models.ListWatched, "rate", metrics.ResultFailure)
			return s.fail("list.watched.rate", err, fields)
		}
		s.mutated(models.ListWatched, "rate", metrics.ResultSuccess)
		s.clearError()
		return nil
	}

	if err := s.backend.AddMovie(ctx, user.ID, models.ListWatched, movieID, rating); err != nil {
		s.mutated(models.ListWatched, "add", metrics.ResultFailure)
		return s.fail("list.watched.add", err, fields)
	}

	leftWatchlist := false
	if s.contains(models.ListWatchlist, movieID) {
		present, err := s.remove(ctx, user, gen, models.ListWatchlist, movieID)
		if err != nil {
			s.rollbackWatched(ctx, user, movieID, fields)
			return err
		}
		leftWatchlist = present
	}

	if !s.appendID(gen, models.ListWatched, movieID) {
		return s.stale("list.watched.add", user)
	}
	s.mutated(models.ListWatched, "add", metrics.ResultSuccess)

	return s.adjustStats(ctx, user, gen, func(st *models.UserStats) {
		st.MoviesWatched++
		if leftWatchlist {
			st.WatchlistCount = max(0, st.WatchlistCount-1)
		}
	})
}

// rollbackWatched deletes a watched row whose watchlist cascade failed
func (s *ProfileStore) rollbackWatched(ctx context.Context, user *models.User, movieID int, fields logrus.Fields) {
	if err := s.backend.RemoveMovie(ctx, user.ID, models.ListWatched, movieID); err != nil {
		s.mutated(models.ListWatched, "rollback", metrics.ResultFailure)
		s.logger.WithFields(fields).WithField("op", "list.watched.rollback").WithError(err).Error("Failed to roll back watched movie")
		return
	}
	s.mutated(models.ListWatched, "rollback", metrics.ResultSuccess)
}

// RemoveFromWatched removes a movie from the watched list
func (s *ProfileStore) RemoveFromWatched(ctx context.Context, movieID int) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	present, err := s.remove(ctx, user, gen, models.ListWatched, movieID)
	if err != nil || !present {
		return err
	}
	return s.adjustStats(ctx, user, gen, func(st *models.UserStats) { st.MoviesWatched = max(0, st.MoviesWatched-1) })
}

// AddToFavorites marks a movie as favorite
func (s *ProfileStore) AddToFavorites(ctx context.Context, movieID int) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	_, err = s.add(ctx, user, gen, models.ListFavorite, movieID)
	return err
}

// RemoveFromFavorites removes a movie from the favorites
func (s *ProfileStore) RemoveFromFavorites(ctx context.Context, movieID int) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	_, err = s.remove(ctx, user, gen, models.ListFavorite, movieID)
	return err
}

// AddToWatchlist adds a movie to the watchlist. Watched movies are rejected
// with apperr.ErrAlreadyWatched.
func (s *ProfileStore) AddToWatchlist(ctx context.Context, movieID int) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	if err := utils.ValidateMovieID(movieID); err != nil {
		return err
	}
	if err := s.ensureLists(ctx, user, gen, models.ListWatched, models.ListWatchlist); err != nil {
		return err
	}
	if s.contains(models.ListWatched, movieID) {
		s.mutated(models.ListWatchlist, "add", metrics.ResultSkipped)
		return s.fail("list.watchlist.add", apperr.ErrAlreadyWatched, logrus.Fields{"movie_id": movieID})
	}

	added, err := s.add(ctx, user, gen, models.ListWatchlist, movieID)
	if err != nil || !added {
		return err
	}
	return s.adjustStats(ctx, user, gen, func(st *models.UserStats) { st.WatchlistCount++ })
}

// RemoveFromWatchlist removes a movie from the watchlist
func (s *ProfileStore) RemoveFromWatchlist(ctx context.Context, movieID int) error {
	user, gen, err := s.begin()
	if err != nil {
		return err
	}
	present, err := s.remove(ctx, user, gen, models.ListWatchlist, movieID)
	if err != nil || !present {
		return err
	}
	return s.adjustStats(ctx, user, gen, func(st *models.UserStats) { st.WatchlistCount = max(0, st.WatchlistCount-1) })
}

// add persists movieID into a list and reports whether it was newly added
func (s *ProfileStore) add(ctx context.Context, user *models.User, gen uint64, kind models.ListKind, movieID int) (bool, error) {
	if err := utils.ValidateMovieID(movieID); err != nil {
		return false, err
	}
	if err := s.ensureLists(ctx, user, gen, kind); err != nil {
		return false, err
	}
	if s.contains(kind, movieID) {
		s.mutated(kind, "add", metrics.ResultSkipped)
		return false, nil
	}

	if err := s.backend.AddMovie(ctx, user.ID, kind, movieID, nil); err != nil {
		s.mutated(kind, "add", metrics.ResultFailure)
		return false, s.fail("list."+string(kind)+".add", err, logrus.Fields{"user_id": user.ID, "movie_id": movieID})
	}
	if !s.appendID(gen, kind, movieID) {
		return false, s.stale("list."+string(kind)+".add", user)
	}
	s.mutated(kind, "add", metrics.ResultSuccess)
	s.clearError()
	return true, nil
}

// remove deletes movieID from a list and reports whether it was held locally
func (s *ProfileStore) remove(ctx context.Context, user *models.User, gen uint64, kind models.ListKind, movieID int) (bool, error) {
	if err := s.ensureLists(ctx, user, gen, kind); err != nil {
		return false, err
	}

	if err := s.backend.RemoveMovie(ctx, user.ID, kind, movieID); err != nil {
		s.mutated(kind, "remove", metrics.ResultFailure)
		return false, s.fail("list."+string(kind)+".remove", err, logrus.Fields{"user_id": user.ID, "movie_id": movieID})
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false, s.stale("list."+string(kind)+".remove", user)
	}
	ids := s.lists[kind]
	present := slices.Contains(ids, movieID)
	if present {
		s.lists[kind] = slices.DeleteFunc(slices.Clone(ids), func(id int) bool { return id == movieID })
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.mutated(kind, "remove", metrics.ResultSuccess)
	return present, nil
}

// adjustStats applies fn to the profile stats and persists the result
func (s *ProfileStore) adjustStats(ctx context.Context, user *models.User, gen uint64, fn func(*models.UserStats)) error {
	if err := s.ensureProfile(ctx, user, gen); err != nil {
		return err
	}

	s.mu.Lock()
	if s.gen != gen || s.profile == nil {
		s.mu.Unlock()
		return s.stale("profile.stats", user)
	}
	before := s.profile.Stats
	stats := s.profile.Clone().Stats
	s.mu.Unlock()

	fn(&stats)
	if stats.MoviesWatched == before.MoviesWatched && stats.WatchlistCount == before.WatchlistCount {
		return nil
	}
	return s.updateProfile(ctx, user, gen, models.ProfileUpdate{Stats: &stats})
}

// appendID adds movieID to a list unless the store was cleared since gen
func (s *ProfileStore) appendID(gen uint64, kind models.ListKind, movieID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.lists[kind] = append(slices.Clone(s.lists[kind]), movieID)
	return true
}

func (s *ProfileStore) contains(kind models.ListKind, movieID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.lists[kind], movieID)
}

func (s *ProfileStore) mutated(kind models.ListKind, op, result string) {
	metrics.Mutations.WithLabelValues(string(kind), op, result).Inc()
}

// Reads

// IsWatched reports whether the movie is in the watched list
func (s *ProfileStore) IsWatched(movieID int) bool { return s.contains(models.ListWatched, movieID) }

// IsFavorite reports whether the movie is a favorite
func (s *ProfileStore) IsFavorite(movieID int) bool { return s.contains(models.ListFavorite, movieID) }

// InWatchlist reports whether the movie is in the watchlist
func (s *ProfileStore) InWatchlist(movieID int) bool {
	return s.contains(models.ListWatchlist, movieID)
}

// Watched returns a copy of the watched ids
func (s *ProfileStore) Watched() []int { return s.ids(models.ListWatched) }

// Favorites returns a copy of the favorite ids
func (s *ProfileStore) Favorites() []int { return s.ids(models.ListFavorite) }

// Watchlist returns a copy of the watchlist ids
func (s *ProfileStore) Watchlist() []int { return s.ids(models.ListWatchlist) }

// IDs returns a copy of the ids of any list
func (s *ProfileStore) IDs(kind models.ListKind) []int { return s.ids(kind) }

func (s *ProfileStore) ids(kind models.ListKind) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lists[kind])
}

// IsLoading reports whether a list is being fetched
func (s *ProfileStore) IsLoading(kind models.ListKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[kind]
}

// IsLoadingProfile reports whether the profile is being fetched
func (s *ProfileStore) IsLoadingProfile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileLoading
}

// Profile returns a copy of the loaded profile, nil before FetchProfile
func (s *ProfileStore) Profile() *models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// LastError returns the user-facing message of the last failure
func (s *ProfileStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Clear drops the profile and the lists
func (s *ProfileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.profile = nil
	s.profileLoading = false
	s.lists = make(map[models.ListKind][]int)
	s.loaded = make(map[models.ListKind]bool)
	s.loading = make(map[models.ListKind]bool)
	s.lastErr = ""
	s.logger.Debug("Profile store cleared")
}

// IsNotAuthenticated reports whether err is the missing sign-in precondition
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, apperr.ErrNotAuthenticated)
}
