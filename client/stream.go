package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	appErrors "github.com/scrimworks/scrimplan/pkg/errors"
	"github.com/scrimworks/scrimplan/pkg/push"
)

// Subscribe opens the server-sent event stream for one week and adapts it to
// a push.Subscription. The subscription ends when the server drops the
// connection or ctx is cancelled; callers decide whether to reconnect.
func (c *Client) Subscribe(ctx context.Context, weekID string) (push.Subscription, error) {
	path := c.baseURL + c.apiPrefix + "/availability/stream?week_id=" + url.QueryEscape(weekID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("client: build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream must not inherit the request timeout of the REST client;
	// reuse its transport without the Timeout.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, appErrors.Clone(appErrors.ErrStaleWeek, "")
		}
		return nil, fmt.Errorf("client: stream rejected with status %d", resp.StatusCode)
	}

	sub := &sseSubscription{
		body:   resp.Body,
		events: make(chan push.Event, 16),
	}
	go sub.read(ctx)
	return sub, nil
}

type sseSubscription struct {
	body   io.ReadCloser
	events chan push.Event
}

func (s *sseSubscription) Events() <-chan push.Event { return s.events }

func (s *sseSubscription) Close() error { return s.body.Close() }

// read parses the SSE frames. Only data lines matter: the event name
// duplicates the kind already carried in the JSON body.
func (s *sseSubscription) read(ctx context.Context) {
	defer close(s.events)
	scanner := bufio.NewScanner(s.body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		event, err := decodeSSEData(data)
		if err != nil {
			continue
		}
		select {
		case s.events <- event:
		case <-ctx.Done():
			return
		}
	}
}

// decodeSSEData handles both raw JSON events and the JSON-quoted string form
// gin's SSEvent produces for string payloads.
func decodeSSEData(data string) (push.Event, error) {
	if strings.HasPrefix(data, "\"") {
		var inner string
		if err := json.Unmarshal([]byte(data), &inner); err != nil {
			return push.Event{}, err
		}
		data = inner
	}
	return push.Decode([]byte(data))
}
