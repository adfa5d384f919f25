package littlstar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/metrics"
)

const (
	// DefaultBaseURL is the public Littlstar API
	DefaultBaseURL = "https://littlstar.com/api/v1/"

	defaultTimeout = 30 * time.Second
	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 4 * time.Second
	userAgent      = "lstar/1.0"
)

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int          // Retries for idempotent requests on 5xx and transport errors
	HTTPClient *http.Client // Optional, e.g. for tests
}

// Client talks to the Littlstar HTTP API.
// Retries live here; callers above the transport never retry.
type Client struct {
	baseURL string
	http    *resty.Client
	stream  *resty.Client // No overall timeout, transfers can be long
	logger  *slog.Logger
}

// NewClient creates a new Littlstar API client
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(baseRetryDelay).
		SetRetryMaxWaitTime(maxRetryDelay).
		AddRetryCondition(shouldRetry)

	// Same transport, no timeout and no retries
	streamClient := resty.NewWithClient(&http.Client{Transport: rc.GetClient().Transport}).
		SetHeader("User-Agent", userAgent)

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    rc,
		stream:  streamClient,
		logger:  logger,
	}
}

// BaseURL returns the service root without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// shouldRetry retries idempotent requests on 5xx and transport errors
func shouldRetry(resp *resty.Response, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if resp == nil || resp.Request == nil {
		return err != nil
	}
	switch resp.Request.Method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
	default:
		return false
	}
	return err != nil || resp.StatusCode() >= 500
}

// request describes one API call
type request struct {
	op     string
	method string
	path   string
	token  string
	query  map[string]string
	body   any
}

// call performs an API request and decodes the data field into T
func call[T any](ctx context.Context, c *Client, req request) (T, *PaginationDTO, error) {
	var zero T

	r := c.http.R().SetContext(ctx)
	if req.token != "" {
		r.SetAuthToken(req.token)
	}
	if len(req.query) > 0 {
		r.SetQueryParams(req.query)
	}
	if req.body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.body)
	}

	c.logger.Debug("littlstar request", "op", req.op, "method", req.method, "path", req.path)

	start := time.Now()
	resp, err := r.Execute(req.method, req.path)
	metrics.RequestDuration.WithLabelValues(req.op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RequestsTotal.WithLabelValues(req.op, metrics.StatusLabel(0)).Inc()
		if ctx.Err() != nil {
			return zero, nil, domain.NetworkError(req.op, ctx.Err())
		}
		c.logger.Error("littlstar request failed", "op", req.op, "error", err)
		return zero, nil, domain.NetworkError(req.op, fmt.Errorf("%w: %v", domain.ErrServerOffline, err))
	}

	status := resp.StatusCode()
	metrics.RequestsTotal.WithLabelValues(req.op, metrics.StatusLabel(status)).Inc()

	var env envelope[T]
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if status < 200 || status >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = env.message()
		}
		c.logger.Warn("littlstar request error", "op", req.op, "status", status, "message", msg)
		return zero, nil, statusError(req.op, status, msg)
	}

	if decodeErr != nil {
		c.logger.Error("failed to decode response", "op", req.op, "error", decodeErr)
		return zero, nil, domain.NetworkError(req.op, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, decodeErr))
	}

	return env.Data, env.Meta.Pagination, nil
}

// message extracts a human-readable reason from an error body
func (e envelope[T]) message() string {
	if e.Error != "" {
		return e.Error
	}
	if len(e.Errors) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(e.Errors, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var single string
	if err := json.Unmarshal(e.Errors, &single); err == nil {
		return single
	}
	var fields map[string][]string
	if err := json.Unmarshal(e.Errors, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for field, msgs := range fields {
			parts = append(parts, field+" "+strings.Join(msgs, ", "))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// statusError maps an HTTP status to the domain error taxonomy
func statusError(op string, status int, msg string) error {
	detail := func(base error) error {
		if msg == "" {
			return base
		}
		return fmt.Errorf("%w: %s", base, msg)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.AuthError(op, detail(domain.ErrAuthFailed))
	case status == http.StatusNotFound:
		return domain.NotFoundError(op, detail(domain.ErrItemNotFound))
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return domain.ValidationError(op, errors.New(msg))
	case status >= 500:
		return domain.NetworkError(op, fmt.Errorf("%w: status %d", domain.ErrServerOffline, status))
	default:
		return domain.NetworkError(op, fmt.Errorf("unexpected status code: %d", status))
	}
}
