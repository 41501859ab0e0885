package tmdb

import (
	"context"
	"fmt"
	"net/url"

	"github.com/amaumene/cinematch/internal/models"
)

// PersonDetails fetches a person's biography record
func (c *Client) PersonDetails(ctx context.Context, id int) (*models.Person, error) {
	var person models.Person
	if err := c.doRequest(ctx, "person.details", fmt.Sprintf("/person/%d", id), c.localized(false), &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// PersonMovieCredits fetches every movie a person is credited on
func (c *Client) PersonMovieCredits(ctx context.Context, id int) (*models.PersonCredits, error) {
	var credits models.PersonCredits
	if err := c.doRequest(ctx, "person.credits", fmt.Sprintf("/person/%d/movie_credits", id), c.localized(false), &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// PersonImages fetches a person's profile pictures. The language is left
// empty so images of every language are returned.
func (c *Client) PersonImages(ctx context.Context, id int) (*models.PersonImages, error) {
	params := url.Values{}
	params.Set("language", "")

	var images models.PersonImages
	if err := c.doRequest(ctx, "person.images", fmt.Sprintf("/person/%d/images", id), params, &images); err != nil {
		return nil, err
	}
	return &images, nil
}
