// Package webhook performs the outbound call to the actuator
// endpoint. The endpoint is addressed as {base}/{event}/with/key/{key}
// and any 2xx response counts as success. Failures of any kind are
// normalized into a guardrail.Result, never returned as an error, so
// the lifecycle controller can record the outcome without
// special-casing a thrown failure.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	guardrail "github.com/goliatone/go-guardrail"
)

const idempotencyHeader = "X-Idempotency-Key"

// Client dispatches events to the actuator.
type Client struct {
	baseURL    string
	key        string
	minSpacing time.Duration
	simulate   bool
	retries    int

	httpClient *http.Client
	clock      guardrail.Clock
	logger     guardrail.Logger

	mu       sync.Mutex
	lastCall map[string]time.Time
}

// Option defines the functional option signature.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock overrides the time source used for spacing and timestamps.
func WithClock(clock guardrail.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger guardrail.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a dispatch client from cfg.
func New(cfg guardrail.Config, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		key:        strings.TrimSpace(cfg.Key),
		minSpacing: cfg.MinSpacingDuration(),
		simulate:   cfg.Simulate,
		retries:    cfg.Retries,
		httpClient: &http.Client{Timeout: cfg.TimeoutDuration()},
		clock:      guardrail.SystemClock(),
		lastCall:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = guardrail.NormalizeLogger(c.logger)
	return c
}

// Retries reports the configured retry count. It is informational:
// the client never retries on its own, retrying is a caller decision.
func (c *Client) Retries() int {
	return c.retries
}

// Trigger dispatches one event. When simulate is true, or the client
// is globally configured to simulate, no network call happens and the
// result reports a simulated success.
//
// Min spacing throttles calls that reached the actuator, successful
// or not. A network-level failure never got there, so it does not
// consume the spacing window and an immediate retry stays allowed.
func (c *Client) Trigger(ctx context.Context, event string, payload guardrail.Payload, idempotencyKey string, simulate bool) guardrail.Result {
	now := c.clock.Now()

	if simulate || c.simulate {
		c.logger.Debug("simulated dispatch event=%s key=%s", event, idempotencyKey)
		return guardrail.Result{
			Success:   true,
			Timestamp: now,
			Simulated: true,
		}
	}

	if wait, ok := c.withinSpacing(event, now); ok {
		return guardrail.Result{
			Success:   false,
			Timestamp: now,
			Error:     fmt.Sprintf("event %q dispatched too recently, retry in %s", event, wait),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return guardrail.Result{
			Success:   false,
			Timestamp: now,
			Error:     fmt.Sprintf("encode payload: %v", err),
		}
	}

	url := fmt.Sprintf("%s/%s/with/key/%s", c.baseURL, event, c.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return guardrail.Result{
			Success:   false,
			Timestamp: now,
			Error:     fmt.Sprintf("build request: %v", err),
		}
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("dispatch failed event=%s err=%v", event, err)
		return guardrail.Result{
			Success:   false,
			Timestamp: now,
			Error:     err.Error(),
		}
	}
	defer resp.Body.Close()

	c.markCalled(event, now)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return guardrail.Result{
			Success:        false,
			Timestamp:      now,
			ResponseStatus: resp.StatusCode,
			Error:          fmt.Sprintf("actuator returned status %d", resp.StatusCode),
		}
	}

	c.logger.Debug("dispatched event=%s status=%d", event, resp.StatusCode)
	return guardrail.Result{
		Success:        true,
		Timestamp:      now,
		ResponseStatus: resp.StatusCode,
	}
}

// withinSpacing reports whether event fired inside the minimum
// inter-call window, and how long remains.
func (c *Client) withinSpacing(event string, now time.Time) (time.Duration, bool) {
	if c.minSpacing <= 0 {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.lastCall[event]
	if !ok {
		return 0, false
	}
	elapsed := now.Sub(last)
	if elapsed >= c.minSpacing {
		return 0, false
	}
	return c.minSpacing - elapsed, true
}

func (c *Client) markCalled(event string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCall[event] = now
}
