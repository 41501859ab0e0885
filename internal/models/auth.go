package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"golang.org/x/crypto/bcrypt"

	"github.com/amaumene/cinematch/internal/apperr"
)

const currentSessionKey = "current"

// LocalUser is an account of the local backend
type LocalUser struct {
	ID           string `boltholdKey:"ID"`
	Email        string `boltholdIndex:"Email"`
	PasswordHash []byte
	CreatedAt    time.Time
}

func (u *LocalUser) toUser() *User {
	return &User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// localSession remembers the signed-in account across runs
type localSession struct {
	Key    string `boltholdKey:"Key"`
	UserID string
}

var errInvalidCredentials = errors.New("invalid login credentials")

// SignUp creates an account and signs it in
func (db *Database) SignUp(_ context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var existing []*LocalUser
	if err := db.store.Find(&existing, bolthold.Where("Email").Eq(email)); err != nil {
		return nil, apperr.Wrap("auth.signup", err)
	}
	if len(existing) > 0 {
		return nil, apperr.New(apperr.KindConflict, "auth.signup", errors.New("user already registered"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), db.hashCost)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "auth.signup", fmt.Errorf("weak password: %w", err))
	}

	account := &LocalUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    db.now().UTC(),
	}
	if err := db.store.Insert(account.ID, account); err != nil {
		return nil, apperr.Wrap("auth.signup", err)
	}

	db.logger.WithField("user_id", account.ID).Info("Local account created")
	user := account.toUser()
	if err := db.setCurrent(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn checks the password of an account and signs it in
func (db *Database) SignIn(_ context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var accounts []*LocalUser
	if err := db.store.Find(&accounts, bolthold.Where("Email").Eq(email)); err != nil {
		return nil, apperr.Wrap("auth.signin", err)
	}
	if len(accounts) == 0 {
		return nil, apperr.New(apperr.KindAuth, "auth.signin", errInvalidCredentials)
	}
	account := accounts[0]
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return nil, apperr.New(apperr.KindAuth, "auth.signin", errInvalidCredentials)
	}

	user := account.toUser()
	if err := db.setCurrent(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignOut forgets the signed-in account
func (db *Database) SignOut(_ context.Context) error {
	return db.setCurrent(nil)
}

// ResetPassword has no mail delivery locally; it only checks the account exists
func (db *Database) ResetPassword(_ context.Context, email string) error {
	var accounts []*LocalUser
	if err := db.store.Find(&accounts, bolthold.Where("Email").Eq(strings.ToLower(email))); err != nil {
		return apperr.Wrap("auth.recover", err)
	}
	db.logger.WithField("known", len(accounts) > 0).Info("Password reset requested, no mail delivery on the local backend")
	return nil
}

// CurrentUser returns the signed-in account, or nil
func (db *Database) CurrentUser(_ context.Context) (*User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.loaded {
		db.loaded = true
		var session localSession
		err := db.store.Get(currentSessionKey, &session)
		switch {
		case errors.Is(err, bolthold.ErrNotFound):
		case err != nil:
			return nil, apperr.Wrap("auth.user", err)
		default:
			var account LocalUser
			if err := db.store.Get(session.UserID, &account); err == nil {
				db.current = account.toUser()
			}
		}
	}

	if db.current == nil {
		return nil, nil
	}
	user := *db.current
	return &user, nil
}

// OnAuthStateChange registers fn for sign-in and sign-out (nil) events
func (db *Database) OnAuthStateChange(fn func(*User)) func() {
	db.mu.Lock()
	id := db.nextID
	db.nextID++
	db.listeners[id] = fn
	db.mu.Unlock()

	return func() {
		db.mu.Lock()
		delete(db.listeners, id)
		db.mu.Unlock()
	}
}

func (db *Database) setCurrent(user *User) error {
	var err error
	if user != nil {
		err = db.store.Upsert(currentSessionKey, &localSession{Key: currentSessionKey, UserID: user.ID})
	} else {
		err = db.store.Delete(currentSessionKey, &localSession{})
		if errors.Is(err, bolthold.ErrNotFound) {
			err = nil
		}
	}
	if err != nil {
		return apperr.Wrap("auth.session", err)
	}

	db.mu.Lock()
	db.current = user
	db.loaded = true
	listeners := make([]func(*User), 0, len(db.listeners))
	for _, fn := range db.listeners {
		listeners = append(listeners, fn)
	}
	db.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
	return nil
}
