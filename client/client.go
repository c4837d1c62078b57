// Package client is the consumer side of the scheduling API: a REST client,
// an optimistic per-week store reconciled from the push channel, a bounded
// week navigator and a grid surface for rendering.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/models"
	appErrors "github.com/scrimworks/scrimplan/pkg/errors"
)

// Client talks to the scheduling API. All methods decode the common response
// envelope and surface its typed error on failure.
type Client struct {
	baseURL    string
	apiPrefix  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIPrefix overrides the API route prefix.
func WithAPIPrefix(prefix string) Option {
	return func(c *Client) { c.apiPrefix = prefix }
}

// New constructs a Client for the given server base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiPrefix:  "/api/schedule",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("client: decode envelope (status %d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return env.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return appErrors.New(appErrors.ErrInternal.Code, resp.StatusCode, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("client: decode payload: %w", err)
		}
	}
	return nil
}

// ListWeeks returns known weeks, optionally only active ones.
func (c *Client) ListWeeks(ctx context.Context, activeOnly bool) ([]models.AvailabilityWeek, error) {
	path := "/availability/weeks"
	if activeOnly {
		path += "?active_only=true"
	}
	var weeks []models.AvailabilityWeek
	if err := c.do(ctx, http.MethodGet, path, nil, &weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

// EnsureWeek gets or creates the week for the given ISO coordinates.
func (c *Client) EnsureWeek(ctx context.Context, year, weekNumber int) (*models.AvailabilityWeek, error) {
	var week models.AvailabilityWeek
	req := dto.CreateWeekRequest{Year: year, WeekNumber: weekNumber}
	if err := c.do(ctx, http.MethodPost, "/availability/week", req, &week); err != nil {
		return nil, err
	}
	return &week, nil
}

// FetchWeek loads the authoritative payload for one week.
func (c *Client) FetchWeek(ctx context.Context, weekID string) (*dto.WeekAvailability, error) {
	var payload dto.WeekAvailability
	path := "/availability?week_id=" + url.QueryEscape(weekID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpsertEntry creates or replaces one availability entry and returns the
// authoritative row.
func (c *Client) UpsertEntry(ctx context.Context, req dto.UpsertAvailabilityRequest) (*models.AvailabilityEntry, error) {
	var entry models.AvailabilityEntry
	if err := c.do(ctx, http.MethodPost, "/availability", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes one availability entry by id.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/availability/"+url.PathEscape(id), nil, nil)
}

// IsStaleWeek reports whether err signals that the requested week no longer
// exists on the server.
func IsStaleWeek(err error) bool {
	appErr := appErrors.FromError(err)
	return appErr != nil && appErr.Code == appErrors.ErrStaleWeek.Code
}
