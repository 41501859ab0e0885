package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/models"
)

// authUser is the user object of GoTrue responses
type authUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u authUser) toModel() models.User {
	return models.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// TokenResponse represents the response of the token and signup endpoints
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	User         *authUser `json:"user"`
}

func (c *Client) sessionFrom(resp *TokenResponse) *models.AuthSession {
	expiresAt := c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	if resp.ExpiresAt > 0 {
		expiresAt = time.Unix(resp.ExpiresAt, 0)
	}

	session := &models.AuthSession{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt,
	}
	if resp.User != nil {
		session.User = resp.User.toModel()
	}
	return session
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account. When the project confirms email addresses
// automatically the user is signed in right away.
func (c *Client) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	var resp struct {
		TokenResponse
		authUser
	}
	err := c.doRequest(ctx, request{
		op:     "auth.signup",
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentialsBody{Email: email, Password: password},
		anon:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.AccessToken != "" {
		session := c.sessionFrom(&resp.TokenResponse)
		c.setSession(session)
		c.logger.WithField("user_id", session.User.ID).Info("Signed up and signed in")
		user := session.User
		return &user, nil
	}

	user := resp.authUser.toModel()
	if resp.User != nil {
		user = resp.User.toModel()
	}
	c.logger.WithField("user_id", user.ID).Info("Signed up, email confirmation pending")
	return &user, nil
}

// SignIn authenticates with email and password
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	var resp TokenResponse
	err := c.doRequest(ctx, request{
		op:     "auth.signin",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentialsBody{Email: email, Password: password},
		anon:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, apperr.New(apperr.KindServer, "auth.signin", errors.New("token response without session"))
	}

	session := c.sessionFrom(&resp)
	c.setSession(session)
	c.logger.WithField("user_id", session.User.ID).Info("Signed in")

	user := session.User
	return &user, nil
}

// RefreshSession exchanges the refresh token for a new access token. An
// auth failure drops the session.
func (c *Client) RefreshSession(ctx context.Context) (*models.AuthSession, error) {
	current := c.currentSession()
	if current == nil || current.RefreshToken == "" {
		return nil, apperr.ErrNotAuthenticated
	}

	var resp TokenResponse
	err := c.doRequest(ctx, request{
		op:     "auth.refresh",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": current.RefreshToken},
		anon:   true,
	}, &resp)
	if err != nil {
		if kind := apperr.KindOf(err); kind == apperr.KindAuth || kind == apperr.KindValidation {
			c.logger.WithError(err).Warn("Refresh token rejected, signing out")
			c.setSession(nil)
		}
		return nil, err
	}

	session := c.sessionFrom(&resp)
	if resp.User == nil {
		session.User = current.User
	}
	c.setSession(session)
	c.logger.Debug("Session refreshed")
	return session, nil
}

// SignOut revokes the session server-side and forgets it locally. The local
// session is dropped even when revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	if c.currentSession() == nil {
		return nil
	}

	err := c.doRequest(ctx, request{
		op:     "auth.signout",
		method: http.MethodPost,
		path:   "/auth/v1/logout",
	}, nil)
	c.setSession(nil)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to revoke session")
		return err
	}

	c.logger.Info("Signed out")
	return nil
}

// ResetPassword sends a password recovery email
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.doRequest(ctx, request{
		op:     "auth.recover",
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		body:   map[string]string{"email": email},
		anon:   true,
	}, nil)
}

// CurrentUser returns the signed-in user, or nil when signed out. A session
// restored from disk is verified against the auth server once.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	c.mu.RLock()
	restored := c.restored
	c.mu.RUnlock()
	if !restored {
		user := session.User
		return &user, nil
	}

	var resp authUser
	err = c.doRequest(ctx, request{
		op:     "auth.user",
		method: http.MethodGet,
		path:   "/auth/v1/user",
	}, &resp)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuth {
			c.setSession(nil)
			return nil, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.restored = false
	if c.session != nil {
		c.session.User = resp.toModel()
	}
	c.mu.Unlock()

	user := resp.toModel()
	return &user, nil
}
