package chossclient

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func serve(t *testing.T, h fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	opts = append([]Option{WithDial(func(string) (net.Conn, error) { return ln.Dial() }), WithTimeout(time.Second)}, opts...)
	return NewClient("http://test/", opts...)
}

func TestRetriesRetryableErrors(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) == 1 {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString(`{"code":"internal","retryable":true}`)
			return
		}
		ctx.SetBodyString(`{"status":"ok","games":2}`)
	})
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Games != 2 || calls.Load() != 2 {
		t.Fatalf("health=%+v calls=%d", h, calls.Load())
	}
}

func TestDoesNotRetryFinalErrors(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		if string(ctx.Path()) != "/api/games/g1" {
			t.Errorf("path = %s", ctx.Path())
		}
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString(`{"code":"game_not_found"}`)
	})
	_, err := c.Game(context.Background(), "g1")
	if !IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		err  APIError
		want bool
	}{
		{APIError{Status: 502}, true},
		{APIError{Status: 504}, true},
		{APIError{Status: 500}, false},
		{APIError{Status: 503}, false},
		{APIError{Status: 400}, false},
	}
	for _, tc := range cases {
		if got := shouldRetry(&tc.err); got != tc.want {
			t.Fatalf("shouldRetry(%d) = %v", tc.err.Status, got)
		}
	}
	retryable := APIError{Status: 503}
	retryable.Body.Retryable = true
	if !shouldRetry(&retryable) {
		t.Fatalf("retryable 503 not retried")
	}
}

func TestWithRetryCapsAttempts(t *testing.T) {
	for _, tc := range []struct {
		retry int
		want  int32
	}{
		{retry: 0, want: 1},
		{retry: 1, want: 1},
		{retry: 2, want: 2},
	} {
		var calls atomic.Int32
		c := serve(t, func(ctx *fasthttp.RequestCtx) {
			calls.Add(1)
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
		}, WithRetry(tc.retry))
		var apiErr *APIError
		if _, err := c.Health(context.Background()); !errors.As(err, &apiErr) || apiErr.Status != fasthttp.StatusBadGateway {
			t.Fatalf("retry=%d err = %v", tc.retry, err)
		}
		if calls.Load() != tc.want {
			t.Fatalf("retry=%d calls = %d, want %d", tc.retry, calls.Load(), tc.want)
		}
	}
}

func TestHeaderProviderIsSent(t *testing.T) {
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if got := string(ctx.Request.Header.Peek("Authorization")); got != "Bearer s3cret" {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}
		if len(ctx.Request.Header.Peek("X-Empty")) != 0 {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		ctx.SetBodyString(`{"status":"ok","games":0}`)
	}, WithHeaderProvider(func() map[string]string {
		return map[string]string{"Authorization": "Bearer s3cret", "X-Empty": " "}
	}))
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
