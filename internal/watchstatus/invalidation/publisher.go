// Package invalidation tells downstream read caches which (profile, show)
// pairs a committed engine call made stale.
package invalidation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
)

// Message is the payload published for one affected pair.
type Message struct {
	ProfileID  uuid.UUID `json:"profile_id"`
	ShowID     int64     `json:"show_id"`
	Operation  string    `json:"operation"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers invalidation messages. Publish is only called after
// the engine transaction committed.
type Publisher interface {
	Publish(ctx context.Context, operation string, keys []domain.ShowKey) error
	Close() error
}

func messages(operation string, keys []domain.ShowKey, now time.Time) []Message {
	msgs := make([]Message, len(keys))
	for i, k := range keys {
		msgs[i] = Message{
			ProfileID:  k.ProfileID,
			ShowID:     k.ShowID,
			Operation:  operation,
			OccurredAt: now,
		}
	}
	return msgs
}

// NoopPublisher drops every message.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) Publish(context.Context, string, []domain.ShowKey) error { return nil }

func (NoopPublisher) Close() error { return nil }
