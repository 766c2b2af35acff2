package httputil

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// BrowserUserAgent is sent to every upstream that gates on a real browser.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Doer is satisfied by *http.Client and *RetryClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type RetryConfig struct {
	// MaxRetries is the number of extra attempts. Negative disables retrying.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

type RetryClient struct {
	client *http.Client
	config RetryConfig
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 300 * time.Millisecond,
		MaxDelay:     3 * time.Second,
		Multiplier:   2.0,
	}
}

func NewRetryClient(client *http.Client, config RetryConfig) *RetryClient {
	if client == nil {
		client = http.DefaultClient
	}

	switch {
	case config.MaxRetries < 0:
		config.MaxRetries = 0
	case config.MaxRetries == 0:
		config.MaxRetries = 2
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = 300 * time.Millisecond
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 3 * time.Second
	}
	if config.Multiplier == 0 {
		config.Multiplier = 2.0
	}

	return &RetryClient{
		client: client,
		config: config,
	}
}

// HTTPClient exposes the wrapped client for libraries that need a plain *http.Client.
func (c *RetryClient) HTTPClient() *http.Client {
	return c.client
}

func (c *RetryClient) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		// body cannot be replayed
		return c.client.Do(req)
	}

	var resp *http.Response
	var err error
	delay := c.config.InitialDelay

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				req.Body = body
			}

			if sleepErr := sleepContext(req.Context(), applyJitter(delay)); sleepErr != nil {
				return nil, errors.Wrap(sleepErr, "retry wait")
			}
			delay = min(time.Duration(float64(delay)*c.config.Multiplier), c.config.MaxDelay)
		}

		resp, err = c.client.Do(req)
		if !shouldRetry(req.Context(), resp, err) {
			return resp, err
		}

		if resp != nil && attempt < c.config.MaxRetries {
			_ = resp.Body.Close()
		}
	}

	return resp, err
}

func shouldRetry(ctx context.Context, resp *http.Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return true
		}
		var dnsErr *net.DNSError
		return errors.As(err, &dnsErr)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return resp.StatusCode >= 500 && resp.StatusCode < 600
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func applyJitter(delay time.Duration) time.Duration {
	jitterFactor := 0.9 + rand.Float64()*0.2
	return time.Duration(float64(delay) * jitterFactor)
}
