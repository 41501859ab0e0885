package models

import (
	"strings"
	"time"
)

// User is an authenticated identity
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthSession is the token set of a signed-in user
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is (or is about to be) unusable
func (s *AuthSession) Expired(now time.Time, leeway time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(leeway).After(s.ExpiresAt)
}

// AppSettings holds per-user application preferences
type AppSettings struct {
	Theme          string `json:"theme"`
	Notifications  bool   `json:"notifications"`
	Language       string `json:"language"`
	FavoriteGenres []int  `json:"favorite_genres"`
}

// FavoriteGenre is a genre counter of the user's statistics
type FavoriteGenre struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UserStats are the counters kept on the profile
type UserStats struct {
	MoviesWatched         int             `json:"movies_watched"`
	WatchlistCount        int             `json:"watchlist_count"`
	FavoriteGenres        []FavoriteGenre `json:"favorite_genres"`
	TotalWatchTimeMinutes int             `json:"total_watch_time"`
}

// UserProfile is the application profile row of a user (id = user id)
type UserProfile struct {
	ID          string      `json:"id" boltholdKey:"ID"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	ProfileURL  *string     `json:"profile_url"`
	AppSettings AppSettings `json:"app_settings"`
	Stats       UserStats   `json:"stats"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// NewDefaultProfile builds the profile created on a user's first authenticated fetch
func NewDefaultProfile(user *User, language string) *UserProfile {
	name := user.Email
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}
	if name == "" {
		name = "user"
	}

	return &UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: name,
		AppSettings: AppSettings{
			Theme:          "dark",
			Notifications:  true,
			Language:       language,
			FavoriteGenres: []int{},
		},
		Stats: UserStats{
			FavoriteGenres: []FavoriteGenre{},
		},
	}
}

// Clone returns a deep copy safe to hand out to callers
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	if p.ProfileURL != nil {
		u := *p.ProfileURL
		out.ProfileURL = &u
	}
	out.AppSettings.FavoriteGenres = append([]int(nil), p.AppSettings.FavoriteGenres...)
	out.Stats.FavoriteGenres = append([]FavoriteGenre(nil), p.Stats.FavoriteGenres...)
	return &out
}

// ProfileUpdate is a partial profile update; nil fields are left untouched
type ProfileUpdate struct {
	DisplayName *string      `json:"display_name,omitempty"`
	ProfileURL  *string      `json:"profile_url,omitempty"`
	AppSettings *AppSettings `json:"app_settings,omitempty"`
	Stats       *UserStats   `json:"stats,omitempty"`
}

// Apply merges the non-nil fields into the profile
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.ProfileURL != nil {
		url := *u.ProfileURL
		p.ProfileURL = &url
	}
	if u.AppSettings != nil {
		p.AppSettings = *u.AppSettings
		p.AppSettings.FavoriteGenres = append([]int(nil), u.AppSettings.FavoriteGenres...)
	}
	if u.Stats != nil {
		p.Stats = *u.Stats
		p.Stats.FavoriteGenres = append([]FavoriteGenre(nil), u.Stats.FavoriteGenres...)
	}
}
