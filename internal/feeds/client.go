// Package feeds fetches prices, the Fear & Greed index and news headlines
// from public HTTP APIs.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/logging"
	"btc-timing-bot/internal/resilience"
	"btc-timing-bot/pkg/utils"
)

const (
	userAgent       = "btc-timing-bot/1.0"
	maxResponseSize = 4 << 20
)

// ClientConfig configures the shared HTTP client.
type ClientConfig struct {
	Timeout  time.Duration
	Retry    utils.RetryConfig
	Breakers *resilience.Registry
	Logger   zerolog.Logger
}

// DefaultClientConfig returns a 10s timeout with the default retry policy.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:  10 * time.Second,
		Retry:    utils.DefaultRetryConfig(),
		Breakers: resilience.NewRegistry(resilience.DefaultCircuitBreakerConfig()),
		Logger:   zerolog.Nop(),
	}
}

// Client performs GET requests with retry and a breaker per feed.
type Client struct {
	http     *http.Client
	retry    utils.RetryConfig
	breakers *resilience.Registry
	logger   zerolog.Logger
}

// NewClient creates a feed client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Breakers == nil {
		cfg.Breakers = resilience.NewRegistry(resilience.DefaultCircuitBreakerConfig())
	}
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		retry:    cfg.Retry,
		breakers: cfg.Breakers,
		logger:   logging.WithComponent(cfg.Logger, "feeds"),
	}
}

// Breakers returns the registry guarding the feeds.
func (c *Client) Breakers() *resilience.Registry {
	return c.breakers
}

// get fetches url for the named feed. Failures are returned as DataErrors
// wrapping ErrFeedUnavailable.
func (c *Client) get(ctx context.Context, feed, dataType, url, accept string) ([]byte, error) {
	cb := c.breakers.Get(feed)

	body, err := resilience.Call(ctx, cb, func(ctx context.Context) ([]byte, error) {
		return utils.RetryWithResult(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
			return c.do(ctx, url, accept)
		})
	})
	if err != nil {
		return nil, apperrors.NewDataError(dataType, feed, err.Error(), apperrors.ErrFeedUnavailable)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, url, accept string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		logging.LogAPICall(c.logger, http.MethodGet, url, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		logging.LogAPICall(c.logger, http.MethodGet, url, time.Since(start), err)
		// 4xx other than rate limiting will not fix itself.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, utils.Permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	logging.LogAPICall(c.logger, http.MethodGet, url, time.Since(start), nil)
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, feed, dataType, url string, target interface{}) error {
	body, err := c.get(ctx, feed, dataType, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return apperrors.NewDataError(dataType, feed, "decoding response", err)
	}
	return nil
}
