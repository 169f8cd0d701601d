package chossclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/choss/pkg/chessdto"
)

// HeaderProvider supplies extra headers, e.g. a bearer token in front of the server.
type HeaderProvider func() map[string]string

// Client reads the admin API of a choss server.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry caps the attempts per request; values below 1 mean a single attempt.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer. Body is the decoded DomainError when the server sent one.
type APIError struct {
	Status int
	Body   chessdto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("choss api error: status=%d code=%s", e.Status, e.Body.Error())
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusNotFound
}

func (c *Client) Health(ctx context.Context) (*chessdto.HealthResponse, error) {
	var out chessdto.HealthResponse
	if err := c.getJSON(ctx, "/healthz", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Game(ctx context.Context, id string) (*chessdto.Game, error) {
	var out chessdto.Game
	if err := c.getJSON(ctx, "/api/games/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LegalMoves(ctx context.Context, id string, x, y int) (*chessdto.LegalMovesResponse, error) {
	q := url.Values{}
	q.Set("x", strconv.Itoa(x))
	q.Set("y", strconv.Itoa(y))
	var out chessdto.LegalMovesResponse
	if err := c.getJSON(ctx, "/api/games/"+url.PathEscape(id)+"/legal?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Recent(ctx context.Context, limit int) ([]chessdto.ArchivedGame, error) {
	var out []chessdto.ArchivedGame
	if err := c.getJSON(ctx, "/api/archive?limit="+strconv.Itoa(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			_ = json.Unmarshal(resp.Body(), &apiErr.Body)
			if !shouldRetry(apiErr) {
				return apiErr
			}
			lastErr = apiErr
		} else {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetry(e *APIError) bool {
	switch e.Status {
	case fasthttp.StatusBadGateway, fasthttp.StatusGatewayTimeout:
		return true
	case fasthttp.StatusInternalServerError, fasthttp.StatusServiceUnavailable:
		return e.Body.Retryable
	default:
		return false
	}
}
