// Package client executes authenticated, rate-limited requests against the
// game server HTTP API and decodes their JSON bodies into model types.
//
// A Client is safe for concurrent use. Its only shared mutable state is the
// rate-limit registry and the session token slot, each behind its own lock.
package client

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

// Default connection settings for the official server.
const (
	DefaultHost    = "screeps.com"
	DefaultTimeout = 15 * time.Second
)

// Request and response headers used for authentication.
const (
	HeaderToken    = "X-Token"
	HeaderUsername = "X-Username"
)

// Config describes how to reach and authenticate against a server. It is
// read once by New and never mutated afterwards.
type Config struct {
	Token    string
	Email    string
	Password string
	Host     string
	Secure   bool
	Timeout  time.Duration
}

// DefaultConfig targets the official server over https.
func DefaultConfig() Config {
	return Config{
		Host:    DefaultHost,
		Secure:  true,
		Timeout: DefaultTimeout,
	}
}

// BaseURL returns scheme://host/api.
func (c Config) BaseURL() string {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	host := strings.TrimRight(strings.TrimSpace(c.Host), "/")
	if host == "" {
		host = DefaultHost
	}
	return fmt.Sprintf("%s://%s/api", scheme, host)
}

// HasCredentials reports whether both email and password are set.
func (c Config) HasCredentials() bool {
	return c.Email != "" && c.Password != ""
}

// Logger is the subset of a structured logger the client writes to. Both
// *zap.Logger and the CLI logger satisfy it.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// Observer receives per-request measurements.
type Observer interface {
	ObserveRequest(method ratelimit.Method, path string, statusCode int, elapsed time.Duration, err error)
	ObserveWait(method ratelimit.Method, path string, wait time.Duration)
	ObserveRateLimit(method ratelimit.Method, path string, limit ratelimit.RateLimit)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Its Timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRegistry shares a rate-limit registry, e.g. one restored from a snapshot.
func WithRegistry(r *ratelimit.Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.limits = r
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client is a game server API client.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limits     *ratelimit.Registry
	token      *TokenHolder
	logger     Logger
	observer   Observer
}

// New builds a client. The registry is seeded with the published defaults
// unless WithRegistry is given.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:     cfg,
		baseURL: cfg.BaseURL(),
		token:   NewTokenHolder(cfg.Token),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if c.limits == nil {
		c.limits = ratelimit.NewRegistry()
	}
	return c
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// BuildURL joins the base URL and path.
func (c *Client) BuildURL(path string) string {
	return c.baseURL + path
}

// Token returns the current session token.
func (c *Client) Token() (string, bool) {
	return c.token.Get()
}

// RateLimits exposes the client's registry.
func (c *Client) RateLimits() *ratelimit.Registry {
	return c.limits
}
