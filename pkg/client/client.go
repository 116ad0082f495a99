// Package client talks to the control API served by `devterm serve`.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	mng "github.com/loykin/devterm/internal/manager"
)

// Client provides HTTP access to a running devterm.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Token is sent as a bearer token when set.
	Token  string
	Logger *slog.Logger
	TLS    *TLSClientConfig
}

// TLSClientConfig holds TLS configuration for client
type TLSClientConfig struct {
	CACert     string // PEM file, e.g. the tls_ca.crt of a generated certificate
	ServerName string
	SkipVerify bool
}

const DefaultBaseURL = "http://127.0.0.1:8787/api"

func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, Timeout: 35 * time.Second}
}

// New creates a client. The timeout default leaves room for the server's
// own 30s operation timeout.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 35 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.TLS != nil {
		tlsConfig, err := setupClientTLS(*config.TLS)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout, Transport: transport},
	}, nil
}

func setupClientTLS(c TLSClientConfig) (*tls.Config, error) {
	// #nosec G402 SkipVerify is an explicit opt-in for self-signed setups
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.SkipVerify,
	}
	if c.CACert != "" {
		pem, err := os.ReadFile(c.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("parse CA certificate: no PEM certificates found")
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

// IsReachable reports whether the API answers, with or without the right token.
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/running", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("devterm unreachable", "error", err)
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode != http.StatusNotFound
}

func (c *Client) Commands(ctx context.Context) ([]CommandStatus, error) {
	var out []CommandStatus
	return out, c.do(ctx, http.MethodGet, "/commands", nil, &out)
}

func (c *Client) Running(ctx context.Context) ([]Record, error) {
	var out []Record
	return out, c.do(ctx, http.MethodGet, "/running", nil, &out)
}

// History returns at most limit events, newest first. limit <= 0 uses the
// server default.
func (c *Client) History(ctx context.Context, limit int) ([]Event, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []Event
	return out, c.do(ctx, http.MethodGet, "/history", q, &out)
}

func (c *Client) Start(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/start", url.Values{"name": {name}}, nil)
}

func (c *Client) Stop(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/stop", url.Values{"name": {name}}, nil)
}

func (c *Client) Restart(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/restart", url.Values{"name": {name}}, nil)
}

func (c *Client) StartAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/start-all", nil, nil)
}

func (c *Client) StopAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/stop-all", nil, nil)
}

func (c *Client) RestartAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/restart-all", nil, nil)
}

// Refresh re-evaluates the server's registry and returns the command names.
func (c *Client) Refresh(ctx context.Context) ([]string, error) {
	var out struct {
		Commands []string `json:"commands"`
	}
	err := c.do(ctx, http.MethodPost, "/refresh", nil, &out)
	return out.Commands, err
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return c.decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// APIError is a non-2xx answer. It unwraps to the devterm sentinel named by
// Kind, so errors.Is(err, devterm.ErrNotRunning) works across the wire.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("devterm API: HTTP %d", e.Status)
	}
	return fmt.Sprintf("devterm API: %s", e.Message)
}

// ErrUnauthorized is matched by APIError for 401 answers.
var ErrUnauthorized = errors.New("unauthorized")

var kinds = map[string]error{
	"not_configured":       mng.ErrNotConfigured,
	"already_running":      mng.ErrAlreadyRunning,
	"not_running":          mng.ErrNotRunning,
	"invalid_config":       mng.ErrInvalidConfig,
	"launch_failure":       mng.ErrLaunchFailure,
	"termination_failure":  mng.ErrTerminationFailure,
	"unsupported_platform": mng.ErrUnsupportedPlatform,
	"unauthorized":         ErrUnauthorized,
}

func (e *APIError) Unwrap() error { return kinds[e.Kind] }

func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Kind = body.Kind
		apiErr.Message = body.Error
	}
	if resp.StatusCode == http.StatusUnauthorized && apiErr.Kind == "" {
		apiErr.Kind = "unauthorized"
	}
	c.logger.Debug("devterm API error", "status", resp.StatusCode, "kind", apiErr.Kind, "error", apiErr.Message)
	return apiErr
}
