// Package client provides a resilient API client for the task management
// service, with offline detection, single-flight request de-duplication,
// retry with exponential backoff, and centralized error normalization.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TokenSource supplies the bearer credential attached to outgoing calls.
// Token returns the empty string when no session is held. Clear drops the
// credential; the client calls it when the server rejects authorization.
type TokenSource interface {
	Token() string
	Clear()
}

// OnlineChecker reports device connectivity. When offline, calls fail
// immediately without touching the network.
type OnlineChecker interface {
	Online() bool
}

// alwaysOnline is the default OnlineChecker.
type alwaysOnline struct{}

func (alwaysOnline) Online() bool { return true }

// Config holds client configuration.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8000".
	BaseURL string

	// MaxAttempts is the total attempt budget for retryable failures.
	MaxAttempts int

	// BaseDelay is the first retry delay; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// Jitter is the upper bound of the random delay added to each backoff.
	Jitter time.Duration

	// Timeout bounds each attempt; an expired attempt counts as a
	// network failure and is subject to the retry policy.
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Jitter:      time.Second,
		Timeout:     30 * time.Second,
	}
}

// Client issues logical calls against the REST API, enforcing
// authentication, single-flight, retry and offline semantics. Every
// failure path resolves to an *APIError.
type Client struct {
	config     Config
	httpClient *http.Client
	tokens     TokenSource
	online     OnlineChecker
	inflight   *inflightRegistry

	mu          sync.Mutex
	subscribers map[int]func()
	nextSubID   int

	// hooks overridable in tests
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// New creates a Client with the given configuration.
func New(config Config) *Client {
	return &Client{
		config:      config,
		httpClient:  &http.Client{},
		online:      alwaysOnline{},
		inflight:    newInflightRegistry(),
		subscribers: make(map[int]func()),
		sleep:       sleepCtx,
		jitter:      randomJitter,
	}
}

// SetTokenSource wires the session credential source.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SetOnlineChecker wires connectivity detection.
func (c *Client) SetOnlineChecker(oc OnlineChecker) {
	c.online = oc
}

// OnSessionInvalidated subscribes to the session-invalidated
// notification broadcast after a 401 response. The returned function
// removes the subscription.
func (c *Client) OnSessionInvalidated(fn func()) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Cancel aborts the outstanding call with the given identity, if any.
// Its caller receives a cancelled error.
func (c *Client) Cancel(method, path string) {
	c.inflight.cancel(identityKey(method, path))
}

// CancelAll aborts every outstanding call, e.g. on logout or teardown.
func (c *Client) CancelAll() {
	c.inflight.cancelAll()
}

// Get issues a GET call.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST call with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, jsonBody(body), out)
}

// Put issues a PUT call with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, jsonBody(body), out)
}

// Delete issues a DELETE call.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// PostForm issues a POST call with a form-encoded body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	body := &payload{
		contentType: "application/x-www-form-urlencoded",
		data:        []byte(form.Encode()),
	}
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// payload is a prepared request body, replayable across retries.
type payload struct {
	contentType string
	data        []byte
	marshalErr  error
}

func jsonBody(body any) *payload {
	if body == nil {
		return nil
	}
	data, err := json.Marshal(body)
	return &payload{
		contentType: "application/json",
		data:        data,
		marshalErr:  err,
	}
}

// do translates a logical call into a wire request and normalizes the
// outcome. Retries are transparent: the caller only ever observes the
// terminal result.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body *payload, out any) error {
	if !c.online.Online() {
		return offlineError()
	}
	if body != nil && body.marshalErr != nil {
		return &APIError{Message: fmt.Sprintf("failed to encode request: %v", body.marshalErr)}
	}

	key := identityKey(method, path)
	reqCtx, release := c.inflight.register(ctx, key)
	defer release()

	target := strings.TrimSuffix(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr *APIError
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(reqCtx, c.backoff(attempt-1)); err != nil {
				return canceledError()
			}
		}

		apiErr, done := c.attempt(reqCtx, method, target, body, out)
		if done {
			if apiErr == nil {
				return nil
			}
			return apiErr
		}
		lastErr = apiErr
	}
	return lastErr
}

// attempt performs a single wire request. done is true when the outcome
// is terminal (success, cancellation, or a non-retryable failure).
func (c *Client) attempt(reqCtx context.Context, method, target string, body *payload, out any) (apiErr *APIError, done bool) {
	attemptCtx, cancel := context.WithTimeout(reqCtx, c.config.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("failed to build request: %v", err)}, true
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Caller or registry cancellation is terminal; timeouts and
		// transport failures are retryable network failures.
		if reqCtx.Err() != nil {
			return canceledError(), true
		}
		return networkError(), false
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if reqCtx.Err() != nil {
			return canceledError(), true
		}
		return networkError(), false
	}

	if resp.StatusCode < 400 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return &APIError{Message: fmt.Sprintf("failed to decode response: %v", err)}, true
			}
		}
		return nil, true
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateSession()
	}

	normalized := statusError(resp.StatusCode, respBody)
	return normalized, !normalized.Retryable()
}

// invalidateSession clears the held credential and broadcasts the
// session-invalidated notification exactly once per 401 response.
func (c *Client) invalidateSession() {
	if c.tokens != nil {
		c.tokens.Clear()
	}

	c.mu.Lock()
	fns := make([]func(), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// backoff computes the retry delay for the given zero-based attempt:
// min(base * 2^attempt, max) plus random jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.config.BaseDelay << uint(attempt)
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	return delay + c.jitter(c.config.Jitter)
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// randomJitter returns a uniform random duration in [0, max).
func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
