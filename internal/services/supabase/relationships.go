package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amaumene/cinematch/internal/models"
)

func tablePath(kind models.ListKind) string {
	return "/rest/v1/" + kind.Table()
}

// ListMovies returns the movie ids of a relationship list, newest first
func (c *Client) ListMovies(ctx context.Context, userID string, kind models.ListKind) ([]int, error) {
	var rows []struct {
		MovieID int `json:"movie_id"`
	}
	err := c.doRequest(ctx, request{
		op:     "list." + string(kind),
		method: http.MethodGet,
		path:   tablePath(kind),
		query: url.Values{
			"select":  {"movie_id"},
			"user_id": {"eq." + userID},
			"order":   {kind.TimestampColumn() + ".desc"},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MovieID)
	}
	return ids, nil
}

// AddMovie inserts a row into a relationship list. rating is only stored
// on the watched list.
func (c *Client) AddMovie(ctx context.Context, userID string, kind models.ListKind, movieID int, rating *float64) error {
	row := map[string]interface{}{
		"user_id":              userID,
		"movie_id":             movieID,
		kind.TimestampColumn(): c.now().UTC(),
	}
	if kind == models.ListWatched {
		row["rating"] = rating
	}

	return c.doRequest(ctx, request{
		op:      "list." + string(kind) + ".add",
		method:  http.MethodPost,
		path:    tablePath(kind),
		body:    row,
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}

// RemoveMovie deletes a row from a relationship list
func (c *Client) RemoveMovie(ctx context.Context, userID string, kind models.ListKind, movieID int) error {
	return c.doRequest(ctx, request{
		op:     "list." + string(kind) + ".remove",
		method: http.MethodDelete,
		path:   tablePath(kind),
		query: url.Values{
			"user_id":  {"eq." + userID},
			"movie_id": {"eq." + strconv.Itoa(movieID)},
		},
	}, nil)
}

// UpdateRating changes the rating of a watched movie
func (c *Client) UpdateRating(ctx context.Context, userID string, movieID int, rating float64) error {
	return c.doRequest(ctx, request{
		op:     "list.watched.rating",
		method: http.MethodPatch,
		path:   tablePath(models.ListWatched),
		query: url.Values{
			"user_id":  {"eq." + userID},
			"movie_id": {"eq." + strconv.Itoa(movieID)},
		},
		body:    map[string]float64{"rating": rating},
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}
