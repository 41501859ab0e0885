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

const profilesTable = "/rest/v1/users"

// GetProfile loads a profile row; nil when the row does not exist yet
func (c *Client) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var rows []models.UserProfile
	err := c.doRequest(ctx, request{
		op:     "profile.get",
		method: http.MethodGet,
		path:   profilesTable,
		query: url.Values{
			"id":     {"eq." + userID},
			"select": {"*"},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UserExists reports whether the auth user is visible to the database yet.
// Right after sign-up the auth row may lag behind the token.
func (c *Client) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := c.doRequest(ctx, request{
		op:     "profile.user_exists",
		method: http.MethodPost,
		path:   "/rest/v1/rpc/check_user_exists",
		body:   map[string]string{"user_id": userID},
	}, &exists)
	return exists, err
}

// CreateProfile inserts a profile row. A duplicate row surfaces as an
// apperr.KindConflict error.
func (c *Client) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	exists, err := c.UserExists(ctx, profile.ID)
	if err != nil {
		c.logger.WithError(err).WithField("user_id", profile.ID).Warn("Failed to check auth user")
	} else if !exists {
		return apperr.New(apperr.KindNotFound, "profile.create", errors.New("auth user not found yet"))
	}

	now := c.now().UTC()
	row := *profile
	row.CreatedAt = &now
	row.UpdatedAt = &now

	return c.doRequest(ctx, request{
		op:      "profile.create",
		method:  http.MethodPost,
		path:    profilesTable,
		body:    row,
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}

// UpdateProfile patches the non-nil fields of upd
func (c *Client) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	body := struct {
		models.ProfileUpdate
		UpdatedAt time.Time `json:"updated_at"`
	}{upd, c.now().UTC()}

	return c.doRequest(ctx, request{
		op:      "profile.update",
		method:  http.MethodPatch,
		path:    profilesTable,
		query:   url.Values{"id": {"eq." + userID}},
		body:    body,
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}
