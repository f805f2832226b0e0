// Package sources holds the concrete data sources the aggregator is wired
// with: bike-share occupancy, traffic incidents, air quality and points of
// interest. Each source wraps its upstream calls in a transport that adds
// retries and a circuit breaker.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// transport executes one source's outbound requests with bounded retries,
// exponential backoff and a named circuit breaker. Rate limiting and 5xx
// answers count as retryable failures; an open circuit aborts immediately.
type transport struct {
	client          *http.Client
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	breaker         *gobreaker.CircuitBreaker
}

func newTransport(name string, client *http.Client) *transport {
	return &transport{
		client:          client,
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     5 * time.Second,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// do runs buildRequest and executes the request until it succeeds, the
// retry budget is spent, the circuit opens, or the context ends. The
// request is rebuilt per attempt so bodies are never reused.
func (t *transport) do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if t.client == nil {
		return nil, errNoHTTPClient
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		resp, err := t.roundTrip(req.WithContext(ctx))
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if attempt >= t.maxRetries {
			return nil, err
		}

		timer := time.NewTimer(t.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *transport) roundTrip(req *http.Request) (*http.Response, error) {
	result, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			return nil, errRateLimited
		case resp.StatusCode >= 500:
			resp.Body.Close()
			return nil, errServerError
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

func (t *transport) backoff(attempt int) time.Duration {
	delay := t.initialInterval << uint(attempt)
	if t.maxInterval > 0 && delay > t.maxInterval {
		delay = t.maxInterval
	}
	return delay
}
