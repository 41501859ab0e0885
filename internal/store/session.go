package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/utils"
)

// Session tracks the signed-in user and clears the registered stores when
// the user signs out or changes
type Session struct {
	auth   Authenticator
	lang   language.Tag
	logger *logrus.Logger

	mu          sync.Mutex
	user        *models.User
	clearers    []Clearer
	unsubscribe func()
}

// NewSession creates a signed-out session
func NewSession(auth Authenticator, lang language.Tag, logger *logrus.Logger) *Session {
	return &Session{auth: auth, lang: lang, logger: logger}
}

// Register adds stores to clear on sign-out
func (s *Session) Register(clearers ...Clearer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearers = append(s.clearers, clearers...)
}

// Start restores the current user and subscribes to auth state changes
func (s *Session) Start(ctx context.Context) error {
	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to restore session")
	}

	s.mu.Lock()
	s.user = user
	if s.unsubscribe == nil {
		s.unsubscribe = s.auth.OnAuthStateChange(s.setUser)
	}
	s.mu.Unlock()

	if user != nil {
		s.logger.WithField("user_id", user.ID).Info("Session restored")
	}
	return err
}

// Stop unsubscribes from auth state changes
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) setUser(user *models.User) {
	s.mu.Lock()
	prev := s.user
	s.user = user
	clearers := append([]Clearer(nil), s.clearers...)
	s.mu.Unlock()

	changed := prev != nil && (user == nil || user.ID != prev.ID)
	if !changed {
		if user != nil {
			s.logger.WithField("user_id", user.ID).Debug("Signed in")
		}
		return
	}

	for _, c := range clearers {
		c.Clear()
	}
	s.logger.WithField("stores", len(clearers)).Info("Session ended, stores cleared")
}

// CurrentUser returns a copy of the signed-in user, nil when signed out
func (s *Session) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// UserID returns the id of the signed-in user, empty when signed out
func (s *Session) UserID() string {
	if u := s.CurrentUser(); u != nil {
		return u.ID
	}
	return ""
}

// Email returns the email of the signed-in user, empty when signed out
func (s *Session) Email() string {
	if u := s.CurrentUser(); u != nil {
		return u.Email
	}
	return ""
}

// SignUp validates the credentials and creates an account
func (s *Session) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	if err := utils.ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	user, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		s.logger.WithField("op", "auth.signup").WithField("kind", apperr.Classify(err)).WithError(err).Warn("Sign up failed")
		return nil, err
	}

	// Accounts awaiting email confirmation have no session yet.
	if current, err := s.auth.CurrentUser(ctx); err == nil {
		s.adopt(current)
	}
	return user, nil
}

// SignIn validates the credentials and signs in
func (s *Session) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if err := utils.ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	user, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		s.logger.WithField("op", "auth.signin").WithField("kind", apperr.Classify(err)).WithError(err).Warn("Sign in failed")
		return nil, err
	}
	s.adopt(user)
	return user, nil
}

// SignOut signs out and clears every registered store
func (s *Session) SignOut(ctx context.Context) error {
	err := s.auth.SignOut(ctx)
	if err != nil {
		s.logger.WithField("op", "auth.signout").WithError(err).Warn("Sign out failed")
	}
	s.setUser(nil)
	return err
}

// ResetPassword sends a password reset mail
func (s *Session) ResetPassword(ctx context.Context, email string) error {
	if err := s.auth.ResetPassword(ctx, email); err != nil {
		s.logger.WithField("op", "auth.recover").WithError(err).Warn("Password reset failed")
		return err
	}
	return nil
}

// Message returns the localized message for a failed auth operation
func (s *Session) Message(err error) string {
	return apperr.AuthMessage(s.lang, err)
}

// adopt records user when the authenticator does not notify listeners
// synchronously
func (s *Session) adopt(user *models.User) {
	if user == nil {
		return
	}
	s.mu.Lock()
	same := s.user != nil && s.user.ID == user.ID
	s.mu.Unlock()
	if !same {
		s.setUser(user)
	}
}
