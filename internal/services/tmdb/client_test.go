package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/config"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/utils"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		TMDBToken:        "test-token",
		Language:         "pt-BR",
		Region:           "BR",
		CatalogRateLimit: 1000,
		HTTPTimeout:      2 * time.Second,
	}
	client, err := NewClient(cfg, utils.NewDiscardLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(&config.Config{}, utils.NewDiscardLogger())
	assert.Error(t, err)
}

func TestCategoryPageSendsRegionAndPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/popular", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "pt-BR", r.URL.Query().Get("language"))
		assert.Equal(t, "BR", r.URL.Query().Get("region"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":2,"total_pages":10,"total_results":200,"results":[
			{"id":550,"title":"Clube da Luta","poster_path":"/a.jpg","backdrop_path":null,"vote_average":8.4,"release_date":"1999-10-15"}
		]}`))
	})

	page, err := client.CategoryPage(context.Background(), models.CategoryPopular, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 550, page.Results[0].ID)
	assert.True(t, page.Results[0].HasPoster())
	assert.Nil(t, page.Results[0].BackdropPath)
}

func TestTrendingCategoryOmitsRegion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trending/movie/week", r.URL.Path)
		assert.False(t, r.URL.Query().Has("region"))
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[]}`))
	})

	_, err := client.CategoryPage(context.Background(), models.CategoryTrendingWeek, 1)
	require.NoError(t, err)
}

func TestSearchAndDiscoverParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/movie":
			assert.Equal(t, "inception", r.URL.Query().Get("query"))
			assert.False(t, r.URL.Query().Has("region"))
		case "/discover/movie":
			assert.Equal(t, "28", r.URL.Query().Get("with_genres"))
			assert.Equal(t, "BR", r.URL.Query().Get("region"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[]}`))
	})

	_, err := client.Search(context.Background(), "inception", 1)
	require.NoError(t, err)
	_, err = client.Discover(context.Background(), 28, 1)
	require.NoError(t, err)
}

func TestPersonImagesEmptyLanguage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/person/287/images", r.URL.Path)
		assert.True(t, r.URL.Query().Has("language"))
		assert.Equal(t, "", r.URL.Query().Get("language"))
		_, _ = w.Write([]byte(`{"id":287,"profiles":[{"file_path":"/p.jpg","width":400,"height":600}]}`))
	})

	images, err := client.PersonImages(context.Background(), 287)
	require.NoError(t, err)
	require.Len(t, images.Profiles, 1)
	assert.Equal(t, "/p.jpg", images.Profiles[0].FilePath)
}

func TestMovieDetailsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	})

	movie, err := client.MovieDetails(context.Background(), 999999)
	assert.Nil(t, movie)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "could not be found")
}

func TestMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	})

	_, err := client.MovieCredits(context.Background(), 550)
	require.Error(t, err)
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
}

func TestTimeoutIsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{TMDBToken: "t", Language: "en", CatalogRateLimit: 100, HTTPTimeout: 20 * time.Millisecond}
	client, err := NewClient(cfg, utils.NewDiscardLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.PersonDetails(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 15; i++ {
		_, _ = client.MovieDetails(context.Background(), 550)
	}

	assert.Equal(t, int32(10), calls.Load())
	_, err := client.MovieDetails(context.Background(), 550)
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "catalog unavailable")
}

func TestCategoryPageUnknown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.CategoryPage(context.Background(), models.Category("nope"), 1)
	assert.Error(t, err)
}

func TestImageURLs(t *testing.T) {
	path := "/abc.jpg"
	empty := ""

	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", ImageURL(&path, PosterLarge))
	assert.Equal(t, "https://image.tmdb.org/t/p/original/abc.jpg", ImageURL(&path, ""))
	assert.Equal(t, "", ImageURL(nil, PosterLarge))
	assert.Equal(t, PosterPlaceholder, PosterURL(nil, PosterSmall))
	assert.Equal(t, BackdropPlaceholder, BackdropURL(&empty, BackdropLarge))
	assert.Equal(t, "https://image.tmdb.org/t/p/h632/abc.jpg", ProfileURL(&path, ProfileLarge))
}
