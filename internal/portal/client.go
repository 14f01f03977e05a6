// Package portal fetches per-employee detail documents from the labor portal.
package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/drew/rotacheck/internal/model"
)

// DateLayout is the calendar date format used in detail requests
const DateLayout = "2006-01-02"

// AcceptHeader is sent with every detail request
const AcceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

// Max detail document size
const maxBodyBytes = 8 << 20

var (
	// ErrHTTPStatus is returned for any non-200 response
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrSessionExpired is returned when the portal redirects off-host, usually to a login page
	ErrSessionExpired = errors.New("portal session expired")
	// ErrPortalUnavailable is returned while the circuit breaker is open
	ErrPortalUnavailable = errors.New("portal unavailable (circuit open)")
)

// Fetcher retrieves the task segments of one employee for a date range.
type Fetcher interface {
	Fetch(ctx context.Context, employeeID string, from, to time.Time) ([]model.TaskSegment, error)
}

// Endpoint locates the detail report
type Endpoint struct {
	BaseURL        string
	DetailPath     string
	TimezoneOffset string
}

// DetailURL builds the detail report URL for employeeID between from and to (midnight to midnight)
func (e Endpoint) DetailURL(employeeID string, from, to time.Time) string {
	q := url.Values{}
	q.Set("employeeId", employeeID)
	q.Set("startTime", from.Format(DateLayout)+"T00:00:00"+e.TimezoneOffset)
	q.Set("endTime", to.Format(DateLayout)+"T00:00:00"+e.TimezoneOffset)
	return strings.TrimRight(e.BaseURL, "/") + e.DetailPath + "?" + q.Encode()
}

// Options configures a Client
type Options struct {
	Endpoint        Endpoint
	Cookie          string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// Client fetches detail documents over HTTP using the portal session cookie.
type Client struct {
	endpoint Endpoint
	cookie   string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	logger   *zap.Logger
}

// NewClient creates a Client. A zero BreakerFailures disables the circuit breaker.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		endpoint: opts.Endpoint,
		cookie:   opts.Cookie,
		http:     hc,
		logger:   logger,
	}

	if opts.BreakerFailures > 0 {
		timeout := opts.BreakerTimeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		failures := opts.BreakerFailures
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "portal",
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return c
}

// Endpoint returns the endpoint the client fetches from
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Fetch downloads and parses one detail document.
func (c *Client) Fetch(ctx context.Context, employeeID string, from, to time.Time) ([]model.TaskSegment, error) {
	target := c.endpoint.DetailURL(employeeID, from, to)

	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}

	segments, err := ParseSegments(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched detail document",
		zap.String("employeeId", employeeID),
		zap.String("from", from.Format(DateLayout)),
		zap.Int("bytes", len(body)),
		zap.Int("segments", len(segments)),
	)
	return segments, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	if c.breaker == nil {
		return c.do(ctx, target)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, target)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrPortalUnavailable
	}
	return body, err
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", AcceptHeader)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	if resp.Request != nil && req.URL.Host != resp.Request.URL.Host {
		return nil, fmt.Errorf("%w: redirected to %s", ErrSessionExpired, resp.Request.URL.Host)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read detail document: %w", err)
	}
	return body, nil
}
