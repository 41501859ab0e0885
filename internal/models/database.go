package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
	"golang.org/x/crypto/bcrypt"

	"github.com/amaumene/cinematch/internal/apperr"
)

// ListEntry is one row of a relationship list in the local backend
type ListEntry struct {
	Key     string `boltholdKey:"Key"`
	UserID  string `boltholdIndex:"UserID"`
	Kind    ListKind
	MovieID int
	Rating  *float64
	AddedAt time.Time
}

func entryKey(userID string, kind ListKind, movieID int) string {
	return fmt.Sprintf("%s:%s:%d", userID, kind, movieID)
}

// Database is the local backend: accounts, profiles, relationship lists and
// avatars kept in a bolthold file next to the configuration
type Database struct {
	store     *bolthold.Store
	avatarDir string
	hashCost  int
	now       func() time.Time
	logger    *logrus.Logger

	mu        sync.Mutex
	current   *User
	loaded    bool
	listeners map[int]func(*User)
	nextID    int
}

// NewDatabase creates a new database connection
func NewDatabase(path, avatarDir string, logger *logrus.Logger) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{
		store:     store,
		avatarDir: avatarDir,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
		logger:    logger,
		listeners: make(map[int]func(*User)),
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Profile operations

// GetProfile retrieves a profile; nil when the user has none yet
func (db *Database) GetProfile(_ context.Context, userID string) (*UserProfile, error) {
	var profile UserProfile
	err := db.store.Get(userID, &profile)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap("profile.get", err)
	}
	return &profile, nil
}

// CreateProfile inserts a new profile. An existing row is a duplicate-key
// conflict, like the hosted backend reports it.
func (db *Database) CreateProfile(_ context.Context, profile *UserProfile) error {
	var user LocalUser
	if err := db.store.Get(profile.ID, &user); err != nil {
		return apperr.New(apperr.KindNotFound, "profile.create", fmt.Errorf("user %s not found", profile.ID))
	}

	now := db.now().UTC()
	row := profile.Clone()
	row.CreatedAt = &now
	row.UpdatedAt = &now

	err := db.store.Insert(row.ID, row)
	if errors.Is(err, bolthold.ErrKeyExists) {
		return duplicateKey("profile.create", "users_pkey")
	}
	if err != nil {
		return apperr.Wrap("profile.create", err)
	}
	return nil
}

// UpdateProfile applies a partial update to a profile
func (db *Database) UpdateProfile(_ context.Context, userID string, upd ProfileUpdate) error {
	var profile UserProfile
	if err := db.store.Get(userID, &profile); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "profile.update", fmt.Errorf("profile %s not found", userID))
		}
		return apperr.Wrap("profile.update", err)
	}

	upd.Apply(&profile)
	now := db.now().UTC()
	profile.UpdatedAt = &now

	if err := db.store.Update(userID, &profile); err != nil {
		return apperr.Wrap("profile.update", err)
	}
	return nil
}

// UploadAvatar writes a profile picture to the avatar directory and
// returns its file URL
func (db *Database) UploadAvatar(_ context.Context, userID, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.New(apperr.KindValidation, "storage.upload", fmt.Errorf("empty image %q", filename))
	}
	if err := os.MkdirAll(db.avatarDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == ".jpeg" {
		ext = ".jpg"
	}
	path := filepath.Join(db.avatarDir, fmt.Sprintf("%s-%d%s", userID, db.now().Unix(), ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write avatar: %w", err)
	}

	return "file://" + path, nil
}

// Relationship list operations

// ListMovies returns the movie ids of a list, newest first
func (db *Database) ListMovies(_ context.Context, userID string, kind ListKind) ([]int, error) {
	var entries []*ListEntry
	query := bolthold.Where("UserID").Eq(userID).And("Kind").Eq(kind).SortBy("AddedAt").Reverse()
	if err := db.store.Find(&entries, query); err != nil {
		return nil, apperr.Wrap("list."+string(kind), err)
	}

	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.MovieID)
	}
	return ids, nil
}

// AddMovie inserts a movie into a list
func (db *Database) AddMovie(_ context.Context, userID string, kind ListKind, movieID int, rating *float64) error {
	entry := &ListEntry{
		Key:     entryKey(userID, kind, movieID),
		UserID:  userID,
		Kind:    kind,
		MovieID: movieID,
		AddedAt: db.now().UTC(),
	}
	if kind == ListWatched {
		entry.Rating = rating
	}

	err := db.store.Insert(entry.Key, entry)
	if errors.Is(err, bolthold.ErrKeyExists) {
		return duplicateKey("list."+string(kind)+".add", kind.Table()+"_pkey")
	}
	if err != nil {
		return apperr.Wrap("list."+string(kind)+".add", err)
	}
	return nil
}

// RemoveMovie deletes a movie from a list; removing a missing row succeeds
func (db *Database) RemoveMovie(_ context.Context, userID string, kind ListKind, movieID int) error {
	err := db.store.Delete(entryKey(userID, kind, movieID), &ListEntry{})
	if err != nil && !errors.Is(err, bolthold.ErrNotFound) {
		return apperr.Wrap("list."+string(kind)+".remove", err)
	}
	return nil
}

// UpdateRating changes the rating of a watched movie
func (db *Database) UpdateRating(_ context.Context, userID string, movieID int, rating float64) error {
	key := entryKey(userID, ListWatched, movieID)

	var entry ListEntry
	if err := db.store.Get(key, &entry); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "list.watched.rating", fmt.Errorf("movie %d not watched", movieID))
		}
		return apperr.Wrap("list.watched.rating", err)
	}

	entry.Rating = &rating
	if err := db.store.Update(key, &entry); err != nil {
		return apperr.Wrap("list.watched.rating", err)
	}
	return nil
}

func duplicateKey(op, constraint string) error {
	return &apperr.Error{
		Kind: apperr.KindConflict,
		Op:   op,
		Code: apperr.DuplicateKeyCode,
		Err:  fmt.Errorf("duplicate key value violates unique constraint %q", constraint),
	}
}
