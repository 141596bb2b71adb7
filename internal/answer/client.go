package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/askcup/internal/model"
	"github.com/ppiankov/askcup/internal/util"
)

// ErrRequestFailed wraps every failure of a call to the answer service:
// network errors, non-2xx statuses and undecodable bodies alike.
var ErrRequestFailed = errors.New("answer service request failed")

// Client talks to the answer service over HTTP
type Client struct {
	httpClient *http.Client
	baseURL    string
	nResults   int
	userAgent  string
	maxBytes   int64
	port       string
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the configured answer service
func NewClient(cfg model.AnswerServiceConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
		},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		nResults:  cfg.NResults,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		port:      cfg.Port(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FailureMessage is the text shown to users when a call fails
func (c *Client) FailureMessage() string {
	return FailureMessage(c.port)
}

// FailureMessage formats the connection failure text for a port
func FailureMessage(port string) string {
	return fmt.Sprintf("Could not connect to backend. Make sure it is running on port %s.", port)
}

// Ask sends one question and decodes the answer. No retries are made.
func (c *Client) Ask(ctx context.Context, question string) (*model.AskResponse, error) {
	body, err := json.Marshal(model.AskRequest{
		Question: question,
		NResults: c.nResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out model.AskResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	if out.Rejected > 0 {
		slog.WarnContext(ctx, "answer carried unrecognized sources",
			"rejected", out.Rejected,
			"kept", len(out.Sources),
		)
	}
	return &out, nil
}

// Health calls GET /health on the answer service
func (c *Client) Health(ctx context.Context) (*model.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrRequestFailed, err)
	}

	var out model.HealthStatus
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status: %s", ErrRequestFailed, resp.Status)
	}

	var r io.Reader = resp.Body
	if c.maxBytes > 0 {
		r = io.LimitReader(resp.Body, c.maxBytes)
	}

	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrRequestFailed, req.URL.Path, err)
	}
	return nil
}
