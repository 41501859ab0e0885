package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/config"
	"github.com/amaumene/cinematch/internal/metrics"
)

const (
	baseURL     = "https://api.themoviedb.org/3"
	breakerName = "tmdb-api"
	clientLabel = "tmdb"
)

// Client handles communication with the TMDB API
type Client struct {
	baseURL    string
	token      string
	language   string
	region     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	tracer     trace.Tracer
	logger     *logrus.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at another server (tests, proxies)
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new TMDB API client
func NewClient(cfg *config.Config, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if cfg.TMDBToken == "" {
		return nil, fmt.Errorf("TMDB API token is required")
	}

	limit := cfg.CatalogRateLimit
	if limit <= 0 {
		limit = 40
	}

	c := &Client{
		baseURL:    baseURL,
		token:      cfg.TMDBToken,
		language:   cfg.Language,
		region:     cfg.Region,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(limit), max(1, int(limit))),
		tracer:     otel.Tracer("github.com/amaumene/cinematch/internal/services/tmdb"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(logger)

	return c, nil
}

func newBreaker(logger *logrus.Logger) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// Client errors (404, 401...) say nothing about the API's health
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			kind := apperr.KindOf(err)
			return kind != apperr.KindNetwork && kind != apperr.KindServer
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// localized returns the base query of a request: language always, region when
// the endpoint is region-aware
func (c *Client) localized(withRegion bool) url.Values {
	params := url.Values{}
	params.Set("language", c.language)
	if withRegion && c.region != "" {
		params.Set("region", c.region)
	}
	return params
}

// doRequest performs an authenticated GET against the TMDB API and decodes
// the JSON body into result
func (c *Client) doRequest(ctx context.Context, op, path string, params url.Values, result interface{}) error {
	ctx, span := c.tracer.Start(ctx, "tmdb."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	span.SetAttributes(attribute.String("http.url", fullURL))

	c.logger.WithFields(logrus.Fields{
		"op":  op,
		"url": fullURL,
	}).Debug("Making TMDB API request")

	if err := c.limiter.Wait(ctx); err != nil {
		return c.fail(span, op, "rate_limited", apperr.New(apperr.KindNetwork, op, err))
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, op, fullURL)
	})
	metrics.ClientRequestDuration.WithLabelValues(clientLabel, op).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = apperr.New(apperr.KindServer, op, fmt.Errorf("catalog unavailable: %w", err))
		}
		return c.fail(span, op, "error", err)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return c.fail(span, op, "malformed", apperr.New(apperr.KindServer, op, fmt.Errorf("failed to decode response: %w", err)))
		}
	}

	metrics.ClientRequests.WithLabelValues(clientLabel, op, "200").Inc()
	return nil
}

func (c *Client) fetch(ctx context.Context, op, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindUnknown, op, fmt.Errorf("failed to create request: %w", err))
	}

	// Set headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	// Perform request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, op, fmt.Errorf("failed to read response: %w", err))
	}

	// Check status code
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return nil, apperr.FromStatus(op, resp.StatusCode, "", apiErr.StatusMessage)
	}

	return body, nil
}

func (c *Client) fail(span trace.Span, op, status string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Status != 0 {
		status = strconv.Itoa(appErr.Status)
	}
	metrics.ClientRequests.WithLabelValues(clientLabel, op, status).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
