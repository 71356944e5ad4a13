package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Doer is satisfied by Client and CircuitBreakerClient so callers can take
// either.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"15s"`
	MaxRetries      int           `env:"HTTP_CLIENT_MAX_RETRIES" envDefault:"3"`
	RetryWaitMin    time.Duration `env:"HTTP_CLIENT_RETRY_WAIT_MIN" envDefault:"500ms"`
	RetryWaitMax    time.Duration `env:"HTTP_CLIENT_RETRY_WAIT_MAX" envDefault:"5s"`
	MaxConnsPerHost int           `env:"HTTP_CLIENT_MAX_CONNS_PER_HOST" envDefault:"16"`
}

// DefaultConfig mirrors the envDefault values.
func DefaultConfig() Config {
	return Config{
		Timeout:         15 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 16,
	}
}

// Client wraps http.Client with bounded retries for transient failures:
// network errors, 5xx other than 501, and 429.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates a Client with its own pooled transport.
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// Do sends req, retrying with exponential backoff. Requests with a body are
// only retried when req.GetBody is set. The last response is returned as-is
// once retries are exhausted so callers can inspect the status.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	var wait time.Duration
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if req.Body != nil && req.Body != http.NoBody {
				if req.GetBody == nil {
					return nil, fmt.Errorf("retry %s %s: request body cannot be replayed", req.Method, req.URL.Redacted())
				}
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		last := attempt >= c.config.MaxRetries
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isRetryableError(ctx, err) && !last {
				wait = c.backoff(attempt, 0)
				continue
			}
			return nil, fmt.Errorf("http request failed after %d attempts: %w", attempt+1, err)
		}

		if !retryableStatus(resp.StatusCode) || last {
			return resp, nil
		}
		wait = c.backoff(attempt, retryAfter(resp))
		_ = resp.Body.Close()
	}
}

// Get performs a GET with the given headers.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	return Get(ctx, c, url, header)
}

// Get builds a GET request for url and sends it through d.
func Get(ctx context.Context, d Doer, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return d.Do(ctx, req)
}

func (c *Client) backoff(attempt int, hint time.Duration) time.Duration {
	wait := c.config.RetryWaitMin * time.Duration(1<<uint(attempt))
	if hint > wait {
		wait = hint
	}
	if c.config.RetryWaitMax > 0 && wait > c.config.RetryWaitMax {
		wait = c.config.RetryWaitMax
	}
	return wait
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		(code >= http.StatusInternalServerError && code != http.StatusNotImplemented)
}

// retryAfter reads a Retry-After header expressed in seconds.
func retryAfter(resp *http.Response) time.Duration {
	s, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || s < 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}

func isRetryableError(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
