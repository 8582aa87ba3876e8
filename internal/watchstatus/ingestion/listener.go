// Package ingestion reacts to catalog change events by refreshing the
// derived statuses of every profile that favorites the changed show.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
	"github.com/narwhalmedia/watchstate/pkg/logger"
)

// ShowUpdated is published by the catalog when a show's seasons or
// episodes change.
type ShowUpdated struct {
	ShowID int64 `json:"show_id"`
}

// Recomputer refreshes a show for all profiles.
type Recomputer interface {
	RecomputeShow(ctx context.Context, showID int64) (domain.Result, error)
}

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
}

// Subscriber delivers raw message payloads to handler.
type Subscriber interface {
	Subscribe(subject, queue string, handler func(data []byte)) (Subscription, error)
}

// NATSSubscriber adapts a NATS connection to Subscriber using queue groups.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber creates a new NATS subscriber
func NewNATSSubscriber(conn *nats.Conn) *NATSSubscriber {
	return &NATSSubscriber{conn: conn}
}

// Subscribe implements Subscriber.
func (s *NATSSubscriber) Subscribe(subject, queue string, handler func(data []byte)) (Subscription, error) {
	sub, err := s.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// Listener consumes ShowUpdated events.
type Listener struct {
	subscriber Subscriber
	subject    string
	queue      string
	recomputer Recomputer
	forget     func(showID int64)
	logger     interfaces.Logger
	timeout    time.Duration
}

// NewListener creates a listener. forget may be nil.
func NewListener(
	subscriber Subscriber,
	subject, queue string,
	recomputer Recomputer,
	forget func(showID int64),
	log interfaces.Logger,
	timeout time.Duration,
) *Listener {
	if forget == nil {
		forget = func(int64) {}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Listener{
		subscriber: subscriber,
		subject:    subject,
		queue:      queue,
		recomputer: recomputer,
		forget:     forget,
		logger:     log,
		timeout:    timeout,
	}
}

// Handle processes one event payload.
func (l *Listener) Handle(ctx context.Context, data []byte) error {
	var event ShowUpdated
	if err := json.Unmarshal(data, &event); err != nil {
		return pkgerrors.BadRequest(fmt.Sprintf("malformed show update: %v", err))
	}
	if event.ShowID <= 0 {
		return pkgerrors.BadRequest("show update without show_id")
	}

	l.forget(event.ShowID)

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := l.recomputer.RecomputeShow(ctx, event.ShowID)
	if err != nil {
		return err
	}

	l.logger.Debug("show recomputed",
		interfaces.Int64("show_id", event.ShowID),
		logger.String("outcome", string(res.Outcome)),
		logger.Int("affected", len(res.Affected)),
	)
	return nil
}

// Start subscribes and blocks until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	sub, err := l.subscriber.Subscribe(l.subject, l.queue, func(data []byte) {
		if err := l.Handle(ctx, data); err != nil {
			l.logger.Error("failed to handle show update",
				logger.String("subject", l.subject),
				logger.String("reason", err.Error()),
				logger.Error(pkgerrors.Cause(err)),
			)
		}
	})
	if err != nil {
		return err
	}

	l.logger.Info("listening for show updates",
		logger.String("subject", l.subject),
		logger.String("queue", l.queue),
	)

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		l.logger.Warn("failed to unsubscribe", logger.Error(err))
	}
	return nil
}
