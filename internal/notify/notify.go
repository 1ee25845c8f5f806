// Package notify calls the notification endpoints that live outside the
// socket: mark read, mark all read, delete, and their bulk variants.
// Each call is fire-and-forget: the returned unread/total counts refresh
// the badge, and any failure surfaces as one toast with no retry.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// csrfHeader carries the hosting page's token on every request.
const csrfHeader = "X-CSRFToken"

const requestTimeout = 10 * time.Second

// genericError is the toast shown for any failed action. The state is
// left unchanged so the same click can simply be retried.
const genericError = "Something went wrong. Please try again."

// Counts is the badge payload every endpoint returns.
type Counts struct {
	Unread int `json:"unread"`
	Total  int `json:"total"`
}

// BadgeView displays the unread/total badge counters.
type BadgeView interface {
	SetCounts(unread, total int)
}

// Toaster shows transient error toasts.
type Toaster interface {
	ShowError(msg string)
}

// Client talks to the notification surface.
type Client struct {
	base   string
	token  string
	http   *http.Client
	badges BadgeView
	toasts Toaster
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the notification endpoints under
// baseURL, authenticating with the given CSRF-style token.
func NewClient(baseURL, token string, badges BadgeView, toasts Toaster, opts ...Option) *Client {
	c := &Client{
		base:   baseURL,
		token:  token,
		http:   &http.Client{Timeout: requestTimeout},
		badges: badges,
		toasts: toasts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarkRead marks one notification read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.post(ctx, "/notifications/read", map[string]string{"id": id})
}

// MarkAllRead marks every notification read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.post(ctx, "/notifications/read-all", struct{}{})
}

// Delete removes one notification.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.post(ctx, "/notifications/delete", map[string]string{"id": id})
}

// MarkManyRead marks a batch of notifications read.
func (c *Client) MarkManyRead(ctx context.Context, ids []string) error {
	return c.post(ctx, "/notifications/bulk-read", map[string][]string{"ids": ids})
}

// DeleteMany removes a batch of notifications.
func (c *Client) DeleteMany(ctx context.Context, ids []string) error {
	return c.post(ctx, "/notifications/bulk-delete", map[string][]string{"ids": ids})
}

// post performs one action and applies the returned counts to the
// badge. Every failure path toasts and leaves the badge untouched.
func (c *Client) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(csrfHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("notify: request failed")
		c.toasts.ShowError(genericError)
		return fmt.Errorf("notify: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("notify: request rejected")
		c.toasts.ShowError(genericError)
		return fmt.Errorf("notify: %s: status %d", path, resp.StatusCode)
	}

	var counts Counts
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("notify: bad response body")
		c.toasts.ShowError(genericError)
		return fmt.Errorf("notify: %s: decode response: %w", path, err)
	}

	c.badges.SetCounts(counts.Unread, counts.Total)
	return nil
}
