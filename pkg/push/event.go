// Package push defines the synchronization channel: a closed set of
// state-change events fanned out to every connected client after the server
// accepts a write. Clients patch their local caches from these events
// instead of refetching whole weeks.
package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scrimworks/scrimplan/internal/models"
)

// EventKind enumerates every event the channel can carry. The set is closed;
// consumers switch exhaustively over it.
type EventKind string

const (
	// EntryUpserted carries the authoritative entry after a create or update.
	EntryUpserted EventKind = "availability_updated"
	// EntryDeleted carries the id of a removed entry.
	EntryDeleted EventKind = "availability_deleted"
	// ListInvalidated signals that an adjacent resource list went stale and
	// should be refetched. Carries no payload beyond the resource name.
	ListInvalidated EventKind = "list_invalidated"
)

// Event is the tagged variant delivered through a Subscription. Exactly one
// payload field is populated depending on Kind.
type Event struct {
	Kind     EventKind                 `json:"kind"`
	WeekID   string                    `json:"week_id"`
	Entry    *models.AvailabilityEntry `json:"entry,omitempty"`
	EntryID  string                    `json:"entry_id,omitempty"`
	Resource string                    `json:"resource,omitempty"`
}

// Validate checks that the payload matches the kind.
func (e Event) Validate() error {
	switch e.Kind {
	case EntryUpserted:
		if e.Entry == nil {
			return fmt.Errorf("push: %s event without entry", e.Kind)
		}
	case EntryDeleted:
		if e.EntryID == "" {
			return fmt.Errorf("push: %s event without entry_id", e.Kind)
		}
	case ListInvalidated:
		if e.Resource == "" {
			return fmt.Errorf("push: %s event without resource", e.Kind)
		}
	default:
		return fmt.Errorf("push: unknown event kind %q", e.Kind)
	}
	return nil
}

// Encode serialises the event for transport.
func (e Event) Encode() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// Decode parses an event off the wire, rejecting unknown kinds.
func Decode(raw []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, fmt.Errorf("push: decode event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// Publisher emits events after authoritative state changes.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscription delivers events for one week in server emission order. The
// transport preserves per-connection ordering; nothing here reorders.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// NopPublisher discards events. Used when redis is not configured and in
// tests.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
