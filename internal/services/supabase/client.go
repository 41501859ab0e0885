package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/config"
	"github.com/amaumene/cinematch/internal/metrics"
	"github.com/amaumene/cinematch/internal/models"
)

const (
	clientLabel = "supabase"

	// refresh the access token when it expires within this window
	refreshLeeway = time.Minute
)

// Client handles communication with a Supabase project: GoTrue auth,
// PostgREST tables and Storage
type Client struct {
	baseURL    string
	anonKey    string
	sessions   SessionStore
	httpClient *http.Client
	now        func() time.Time
	logger     *logrus.Logger

	mu        sync.RWMutex
	session   *models.AuthSession
	restored  bool // session loaded from the store, not yet verified
	loaded    bool
	listeners map[int]func(*models.User)
	nextID    int
}

// Option customizes a Client
type Option func(*Client)

// WithSessionStore replaces the file session store
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) { c.sessions = store }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces time.Now, used for storage file names and token expiry
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new Supabase client
func NewClient(cfg *config.Config, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.SupabaseURL, "/"),
		anonKey:    cfg.SupabaseAnonKey,
		sessions:   NewFileSessionStore(cfg.SessionFile),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		now:        time.Now,
		logger:     logger,
		listeners:  make(map[int]func(*models.User)),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// request describes one call against the project
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        interface{}
	raw         io.Reader // sent as-is instead of body
	contentType string
	headers     map[string]string
	anon        bool // authenticate with the anon key even when signed in
}

// apiError covers the error envelopes of GoTrue, PostgREST and Storage
type apiError struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	ErrorName        string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (e apiError) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	var s string
	if err := json.Unmarshal(e.Code, &s); err == nil {
		return s
	}
	return ""
}

func (e apiError) message() string {
	for _, m := range []string{e.ErrorDescription, e.Message, e.Msg, e.ErrorName} {
		if m != "" {
			return m
		}
	}
	return ""
}

// doRequest performs an HTTP request against the project and decodes the JSON
// response into result
func (c *Client) doRequest(ctx context.Context, req request, result interface{}) error {
	var token string
	if !req.anon {
		session, err := c.ensureSession(ctx)
		if err != nil {
			return err
		}
		if session != nil {
			token = session.AccessToken
		}
	}
	if token == "" {
		token = c.anonKey
	}

	reqBody := req.raw
	if reqBody == nil && req.body != nil {
		jsonData, err := json.Marshal(req.body)
		if err != nil {
			return apperr.New(apperr.KindValidation, req.op, fmt.Errorf("failed to marshal request body: %w", err))
		}
		reqBody = bytes.NewReader(jsonData)
	}

	fullURL := c.baseURL + req.path
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}
	c.logger.WithFields(logrus.Fields{
		"op":     req.op,
		"method": req.method,
		"url":    fullURL,
	}).Debug("Making Supabase request")

	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, reqBody)
	if err != nil {
		return apperr.New(apperr.KindUnknown, req.op, fmt.Errorf("failed to create request: %w", err))
	}

	// Set headers
	contentType := req.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ClientRequestDuration.WithLabelValues(clientLabel, req.op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClientRequests.WithLabelValues(clientLabel, req.op, "error").Inc()
		return apperr.New(apperr.KindNetwork, req.op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()
	metrics.ClientRequests.WithLabelValues(clientLabel, req.op, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.New(apperr.KindNetwork, req.op, fmt.Errorf("failed to read response: %w", err))
	}

	// Check status code
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		message := apiErr.message()
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		return apperr.FromStatus(req.op, resp.StatusCode, apiErr.code(), message)
	}

	// Parse response
	if result != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return apperr.New(apperr.KindServer, req.op, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return nil
}

// ensureSession returns the current session, refreshing it when the access
// token is about to expire. A nil session means signed out.
func (c *Client) ensureSession(ctx context.Context) (*models.AuthSession, error) {
	session := c.currentSession()
	if session == nil {
		return nil, nil
	}

	if session.Expired(c.now(), refreshLeeway) {
		c.logger.Info("Access token expires soon, refreshing...")
		refreshed, err := c.RefreshSession(ctx)
		if err != nil {
			return nil, err
		}
		return refreshed, nil
	}

	return session, nil
}

// currentSession lazily restores the persisted session on first use
func (c *Client) currentSession() *models.AuthSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.loaded = true
		session, err := c.sessions.LoadSession()
		switch {
		case err == nil:
			c.session = session
			c.restored = true
		case errors.Is(err, ErrNoSession):
		default:
			c.logger.WithError(err).Warn("Failed to restore session")
		}
	}

	if c.session == nil {
		return nil
	}
	copied := *c.session
	return &copied
}

// setSession persists and publishes a new session (nil signs out)
func (c *Client) setSession(session *models.AuthSession) {
	c.mu.Lock()
	c.session = session
	c.loaded = true
	c.restored = false
	listeners := make([]func(*models.User), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	var user *models.User
	if session != nil {
		if err := c.sessions.SaveSession(session); err != nil {
			c.logger.WithError(err).Warn("Failed to persist session")
		}
		u := session.User
		user = &u
	} else if err := c.sessions.ClearSession(); err != nil {
		c.logger.WithError(err).Warn("Failed to clear persisted session")
	}

	for _, fn := range listeners {
		fn(user)
	}
}

// OnAuthStateChange registers fn to be called with the new user on sign-in,
// refresh and sign-out (nil). The returned func unsubscribes.
func (c *Client) OnAuthStateChange(fn func(*models.User)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}
