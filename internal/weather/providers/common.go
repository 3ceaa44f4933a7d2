package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-climatology/internal/metrics"
	"github.com/i474232898/weather-climatology/internal/weather"
)

// maxErrorBody bounds how much of an error response body is kept in messages.
const maxErrorBody = 512

var errNoHTTPClient = errors.New("http client not configured")

// statusError is a non-2xx upstream response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.code, e.body)
}

// callerCanceledError is a request abandoned because the caller's context
// ended, not because the upstream misbehaved.
type callerCanceledError struct {
	err error
}

func (e *callerCanceledError) Error() string { return e.err.Error() }

func (e *callerCanceledError) Unwrap() error { return e.err }

// newCircuitBreaker returns the breaker shared by all requests of one provider.
// Client errors other than 429 and caller cancellations do not count against
// the upstream.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ce *callerCanceledError
			if errors.As(err, &ce) {
				return true
			}
			var se *statusError
			if errors.As(err, &se) {
				return se.code < 500 && se.code != http.StatusTooManyRequests
			}
			return false
		},
	})
}

// doRequest executes a single request through the circuit breaker. It never
// retries. Every failure comes back as a *weather.Error of kind FetchFailed.
// On success the caller owns the response body.
func doRequest(
	ctx context.Context,
	provider string,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, weather.FetchFailed(0, errNoHTTPClient, "%s: request not sent", provider)
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, weather.FetchFailed(0, err, "%s: build request", provider)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, canceledBeforeSend(provider, ctxErr)
	}

	start := time.Now()
	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			if ctx.Err() != nil {
				return nil, &callerCanceledError{err: execErr}
			}
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(b))}
		}
		return resp, nil
	})
	metrics.UpstreamLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err == nil {
		resp, ok := result.(*http.Response)
		if !ok {
			return nil, weather.FetchFailed(0, nil, "%s: unexpected result type from circuit breaker", provider)
		}
		metrics.UpstreamCallsTotal.WithLabelValues(provider, strconv.Itoa(resp.StatusCode)).Inc()
		return resp, nil
	}

	var se *statusError
	switch {
	case errors.As(err, &se):
		metrics.UpstreamCallsTotal.WithLabelValues(provider, strconv.Itoa(se.code)).Inc()
		return nil, weather.FetchFailed(se.code, err, "%s returned status %d", provider, se.code)
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.UpstreamCallsTotal.WithLabelValues(provider, "circuit_open").Inc()
		return nil, weather.FetchFailed(0, err, "%s circuit breaker open", provider)
	case isTimeout(err):
		metrics.UpstreamCallsTotal.WithLabelValues(provider, "timeout").Inc()
		return nil, weather.FetchFailed(0, fmt.Errorf("%w: %v", context.DeadlineExceeded, err), "%s request timed out", provider)
	default:
		metrics.UpstreamCallsTotal.WithLabelValues(provider, "error").Inc()
		return nil, weather.FetchFailed(0, err, "%s request failed", provider)
	}
}

func canceledBeforeSend(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return weather.FetchFailed(0, err, "%s request timed out", provider)
	}
	return weather.FetchFailed(0, err, "%s request canceled", provider)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
