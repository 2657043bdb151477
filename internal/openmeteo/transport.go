package openmeteo

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/pkg/util/exception"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// transport is the caching, retrying, circuit-breaking HTTP layer under the
// Open-Meteo client. Responses for identical URLs are served from an
// in-memory cache within the expiry window, so repeated runs inside the
// window issue no redundant calls; transient failures are retried with
// exponential backoff up to a bounded attempt count.
type transport struct {
	client  *http.Client
	retry   config.RetryConfig
	expiry  time.Duration
	circuit *gobreaker.CircuitBreaker

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	fetched time.Time
}

func newTransport(cfg config.OpenMeteoConfig) *transport {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: uint32(cfg.Retry.CircuitMaxRequests),
		Interval:    time.Duration(cfg.Retry.CircuitIntervalSec) * time.Second,
		Timeout:     time.Duration(cfg.Retry.CircuitTimeoutSec) * time.Second,
	})
	return &transport{
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   cfg.Retry,
		expiry:  time.Duration(cfg.CacheExpiryMinutes) * time.Minute,
		circuit: cb,
		cache:   make(map[string]cacheEntry),
	}
}

// get fetches the URL, consulting the cache first. A fresh body is cached on
// success.
func (t *transport) get(ctx context.Context, url string) ([]byte, error) {
	t.mu.Lock()
	if entry, ok := t.cache[url]; ok && time.Since(entry.fetched) < t.expiry {
		t.mu.Unlock()
		logger.Debugf("openmeteo: cache hit for %s", url)
		return entry.body, nil
	}
	t.mu.Unlock()

	body, err := t.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.cache[url] = cacheEntry{body: body, fetched: time.Now()}
	t.mu.Unlock()
	return body, nil
}

func (t *transport) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < t.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := t.backoffDelay(attempt)
			logger.Debugf("openmeteo: retrying in %v (attempt %d/%d)", delay, attempt+1, t.retry.MaxAttempts)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := t.circuit.Execute(func() (interface{}, error) {
			return t.fetchOnce(ctx, url)
		})
		if err == nil {
			return result.([]byte), nil
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, exception.NewPipelineError(moduleName, "circuit breaker open", err, false)
		}
		if !exception.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, exception.NewPipelineError(moduleName,
		fmt.Sprintf("giving up after %d attempts", t.retry.MaxAttempts), lastErr, false)
}

func (t *transport) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to build request", err, false)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, exception.NewPipelineError(moduleName, "weather call failed", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("weather endpoint returned status %d", resp.StatusCode), nil, retryable)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to read weather response", err, true)
	}
	return body, nil
}

func (t *transport) backoffDelay(attempt int) time.Duration {
	base := time.Duration(t.retry.InitialIntervalMs) * time.Millisecond
	delay := time.Duration(float64(base) * math.Pow(t.retry.Factor, float64(attempt-1)))
	max := time.Duration(t.retry.MaxIntervalMs) * time.Millisecond
	if max > 0 && delay > max {
		delay = max
	}
	return delay
}
