package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/models"
)

// mockCatalog is a testify mock of Catalog
type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) CategoryPage(ctx context.Context, category models.Category, page int) (*models.MoviePage, error) {
	args := m.Called(ctx, category, page)
	p, _ := args.Get(0).(*models.MoviePage)
	return p, args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	args := m.Called(ctx, query, page)
	p, _ := args.Get(0).(*models.MoviePage)
	return p, args.Error(1)
}

func (m *mockCatalog) Discover(ctx context.Context, genreID, page int) (*models.MoviePage, error) {
	args := m.Called(ctx, genreID, page)
	p, _ := args.Get(0).(*models.MoviePage)
	return p, args.Error(1)
}

func (m *mockCatalog) MovieDetails(ctx context.Context, id int) (*models.Movie, error) {
	args := m.Called(ctx, id)
	movie, _ := args.Get(0).(*models.Movie)
	return movie, args.Error(1)
}

func (m *mockCatalog) MovieCredits(ctx context.Context, id int) (*models.MovieCredits, error) {
	args := m.Called(ctx, id)
	credits, _ := args.Get(0).(*models.MovieCredits)
	return credits, args.Error(1)
}

func (m *mockCatalog) SimilarMovies(ctx context.Context, id int) (*models.MoviePage, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.MoviePage)
	return p, args.Error(1)
}

func (m *mockCatalog) PersonDetails(ctx context.Context, id int) (*models.Person, error) {
	args := m.Called(ctx, id)
	person, _ := args.Get(0).(*models.Person)
	return person, args.Error(1)
}

func (m *mockCatalog) PersonMovieCredits(ctx context.Context, id int) (*models.PersonCredits, error) {
	args := m.Called(ctx, id)
	credits, _ := args.Get(0).(*models.PersonCredits)
	return credits, args.Error(1)
}

func (m *mockCatalog) PersonImages(ctx context.Context, id int) (*models.PersonImages, error) {
	args := m.Called(ctx, id)
	images, _ := args.Get(0).(*models.PersonImages)
	return images, args.Error(1)
}

func poster(p string) *string { return &p }

// moviePage builds a page of n movies with posters, ids starting at first
func moviePage(page, first, n int) *models.MoviePage {
	results := make([]models.Movie, 0, n)
	for i := 0; i < n; i++ {
		id := first + i
		results = append(results, models.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id), PosterPath: poster(fmt.Sprintf("/p%d.jpg", id))})
	}
	return &models.MoviePage{Results: results, Page: page, TotalPages: 10, TotalResults: 10 * n}
}

// staticUsers is a UserSource with a fixed user
type staticUsers struct {
	mu   sync.Mutex
	user *models.User
}

func (u *staticUsers) CurrentUser() *models.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.user
}

func (u *staticUsers) set(user *models.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.user = user
}

var errBackendDown = errors.New("network request failed")

// fakeBackend is an in-memory ProfileBackend with failure injection
type fakeBackend struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
	lists    map[models.ListKind][]int
	ratings  map[int]float64
	calls    map[string]int

	// failures maps a method name to the errors returned by its next calls
	failures map[string][]error

	// createdElsewhere makes CreateProfile lose the race against another writer
	createdElsewhere *models.UserProfile

	// gates hold calls of a method until released
	gates map[string]*gate
}

// gate blocks the calls of one backend method until release is closed
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles: make(map[string]*models.UserProfile),
		lists:    make(map[models.ListKind][]int),
		ratings:  make(map[int]float64),
		calls:    make(map[string]int),
		failures: make(map[string][]error),
		gates:    make(map[string]*gate),
	}
}

// hold makes the next calls of method wait until the returned gate is released
func (b *fakeBackend) hold(method string) *gate {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
	b.gates[method] = g
	return g
}

// wait must be called without b.mu held
func (b *fakeBackend) wait(method string) {
	b.mu.Lock()
	g := b.gates[method]
	b.mu.Unlock()
	if g == nil {
		return
	}
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
}

func (b *fakeBackend) failNext(method string, errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method] = append(b.failures[method], errs...)
}

func (b *fakeBackend) count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// enter must be called with b.mu held
func (b *fakeBackend) enter(method string) error {
	b.calls[method]++
	if errs := b.failures[method]; len(errs) > 0 {
		b.failures[method] = errs[1:]
		return errs[0]
	}
	return nil
}

func (b *fakeBackend) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	b.wait("GetProfile")
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("GetProfile"); err != nil {
		return nil, err
	}
	return b.profiles[userID].Clone(), nil
}

func (b *fakeBackend) CreateProfile(_ context.Context, profile *models.UserProfile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("CreateProfile"); err != nil {
		return err
	}
	if b.createdElsewhere != nil {
		b.profiles[profile.ID] = b.createdElsewhere.Clone()
	}
	if _, ok := b.profiles[profile.ID]; ok {
		return &apperr.Error{Kind: apperr.KindConflict, Code: apperr.DuplicateKeyCode, Err: errors.New("duplicate key value violates unique constraint")}
	}
	b.profiles[profile.ID] = profile.Clone()
	return nil
}

func (b *fakeBackend) UpdateProfile(_ context.Context, userID string, upd models.ProfileUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("UpdateProfile"); err != nil {
		return err
	}
	p, ok := b.profiles[userID]
	if !ok {
		return apperr.New(apperr.KindNotFound, "profile.update", errors.New("not found"))
	}
	upd.Apply(p)
	return nil
}

func (b *fakeBackend) UploadAvatar(_ context.Context, userID, filename string, _ []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("UploadAvatar"); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + userID + "/" + filename, nil
}

func (b *fakeBackend) ListMovies(_ context.Context, _ string, kind models.ListKind) ([]int, error) {
	b.wait("ListMovies")
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("ListMovies"); err != nil {
		return nil, err
	}
	return slices.Clone(b.lists[kind]), nil
}

func (b *fakeBackend) AddMovie(_ context.Context, _ string, kind models.ListKind, movieID int, rating *float64) error {
	b.wait("AddMovie")
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("AddMovie"); err != nil {
		return err
	}
	if slices.Contains(b.lists[kind], movieID) {
		return &apperr.Error{Kind: apperr.KindConflict, Code: apperr.DuplicateKeyCode, Err: errors.New("duplicate key")}
	}
	b.lists[kind] = append(b.lists[kind], movieID)
	if rating != nil {
		b.ratings[movieID] = *rating
	}
	return nil
}

func (b *fakeBackend) RemoveMovie(_ context.Context, _ string, kind models.ListKind, movieID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("RemoveMovie"); err != nil {
		return err
	}
	b.lists[kind] = slices.DeleteFunc(b.lists[kind], func(id int) bool { return id == movieID })
	return nil
}

func (b *fakeBackend) UpdateRating(_ context.Context, _ string, movieID int, rating float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("UpdateRating"); err != nil {
		return err
	}
	b.ratings[movieID] = rating
	return nil
}

func (b *fakeBackend) profile(userID string) *models.UserProfile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profiles[userID].Clone()
}

// fakeAuth is an Authenticator that keeps one account per email
type fakeAuth struct {
	mu        sync.Mutex
	passwords map[string]string
	current   *models.User
	listeners []func(*models.User)
	calls     int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{passwords: make(map[string]string)}
}

func (a *fakeAuth) notify(user *models.User) {
	a.mu.Lock()
	a.current = user
	listeners := slices.Clone(a.listeners)
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(user)
	}
}

func (a *fakeAuth) SignUp(_ context.Context, email, password string) (*models.User, error) {
	a.mu.Lock()
	a.calls++
	if _, ok := a.passwords[email]; ok {
		a.mu.Unlock()
		return nil, apperr.New(apperr.KindConflict, "auth.signup", errors.New("user already registered"))
	}
	a.passwords[email] = password
	a.mu.Unlock()

	user := &models.User{ID: "id-" + email, Email: email}
	a.notify(user)
	return user, nil
}

func (a *fakeAuth) SignIn(_ context.Context, email, password string) (*models.User, error) {
	a.mu.Lock()
	a.calls++
	stored, ok := a.passwords[email]
	a.mu.Unlock()
	if !ok || stored != password {
		return nil, apperr.New(apperr.KindAuth, "auth.signin", errors.New("invalid login credentials"))
	}

	user := &models.User{ID: "id-" + email, Email: email}
	a.notify(user)
	return user, nil
}

func (a *fakeAuth) SignOut(context.Context) error {
	a.notify(nil)
	return nil
}

func (a *fakeAuth) ResetPassword(context.Context, string) error { return nil }

func (a *fakeAuth) CurrentUser(context.Context) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, nil
}

func (a *fakeAuth) OnAuthStateChange(fn func(*models.User)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
	i := len(a.listeners) - 1
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.listeners[i] = func(*models.User) {}
	}
}
