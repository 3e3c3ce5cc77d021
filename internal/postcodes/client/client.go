// Package client provides the HTTP transport to the remote postcode lookup
// service.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/platform/config"
	"postcode_lookup/platform/logger"
)

const (
	breakerName  = "postcodes-upstream"
	maxBodyBytes = 1 << 20
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = gobreaker.ErrOpenState

// errServerStatus marks a 5xx inside the breaker so it counts as a failure.
var errServerStatus = errors.New("lookup service server error")

// Client sends LookupRequests through a circuit breaker.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*transport.Response]
	baseURL    string
	origin     string
	timeout    time.Duration
	log        *logger.Logger
}

// New creates a lookup client from configuration.
func New(cfg config.LookupConfig, log *logger.Logger) *Client {
	minRequests := cfg.GetBreakerMinRequests()
	failureRatio := cfg.GetBreakerFailureRatio()

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.GetBreakerMaxRequests(),
		Interval:    cfg.GetBreakerInterval(),
		Timeout:     cfg.GetBreakerTimeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= failureRatio
		},
		// A cancelled context is a superseded or abandoned lookup, not an
		// unhealthy upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}
	breakerState.WithLabelValues(breakerName).Set(0)

	return &Client{
		httpClient: &http.Client{},
		breaker:    gobreaker.NewCircuitBreaker[*transport.Response](settings),
		baseURL:    cfg.GetPostcodesAPIURL(),
		origin:     cfg.GetPostcodesOrigin(),
		timeout:    cfg.GetUpstreamTimeout(),
		log:        log,
	}
}

// DefaultBuilder returns the request builder for the configured base URL.
func (c *Client) DefaultBuilder() (transport.RequestBuilder, error) {
	return DefaultRequestBuilder(c.baseURL, c.origin)
}

// Origin returns the origin relative lookup URLs resolve against.
func (c *Client) Origin() string {
	return c.origin
}

// State returns the current breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Do sends req and reads the whole response. Non-2xx responses are returned
// with a nil error; deciding what a status means is up to the caller.
func (c *Client) Do(ctx context.Context, req transport.LookupRequest) (*transport.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	var served *transport.Response
	_, err = c.breaker.Execute(func() (*transport.Response, error) {
		resp, err := c.send(httpReq)
		if err != nil {
			return nil, err
		}
		served = resp
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		c.log.Error("postcodes upstream error", "status", served.StatusCode, "url", httpReq.URL.Redacted())
		return served, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			c.log.Debug("postcodes request aborted", "error", err, "url", httpReq.URL.Redacted())
		} else {
			c.log.Error("postcodes request failed", "error", err, "url", httpReq.URL.Redacted())
		}
		return nil, err
	}
	return served, nil
}

func (c *Client) newRequest(ctx context.Context, req transport.LookupRequest) (*http.Request, error) {
	target, err := ResolveURL(req.URL, c.origin)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}

func (c *Client) send(httpReq *http.Request) (*transport.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		upstreamDuration.WithLabelValues(statusLabel(0)).Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	upstreamDuration.WithLabelValues(statusLabel(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &transport.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
