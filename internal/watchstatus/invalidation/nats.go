package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
	"github.com/narwhalmedia/watchstate/pkg/logger"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Connect opens a NATS connection that logs its lifecycle.
func Connect(url, name string, log interfaces.Logger) (*nats.Conn, func(), error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Error("NATS disconnected", logger.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", logger.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	cleanup := func() {
		if err := nc.Drain(); err != nil {
			log.Error("failed to drain NATS connection", logger.Error(err))
		}
	}

	log.Info("NATS client initialized", logger.String("url", url))
	return nc, cleanup, nil
}

// NATSPublisher publishes one message per pair on <subject>.<profile id>.
type NATSPublisher struct {
	conn    Conn
	subject string
	logger  interfaces.Logger
	now     func() time.Time
}

// NewNATSPublisher creates a new NATS invalidation publisher
func NewNATSPublisher(conn Conn, subject string, log interfaces.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, operation string, keys []domain.ShowKey) error {
	if len(keys) == 0 {
		return nil
	}

	for _, msg := range messages(operation, keys, p.now()) {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal invalidation: %w", err)
		}

		subject := fmt.Sprintf("%s.%s", p.subject, msg.ProfileID)
		if err := p.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("failed to publish invalidation: %w", err)
		}
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(pubCtx); err != nil {
		return fmt.Errorf("failed to flush invalidations: %w", err)
	}

	p.logger.Debug("invalidations published",
		logger.String("operation", operation),
		logger.Int("count", len(keys)),
	)
	return nil
}

// Close is a no-op; the connection owner drains it.
func (p *NATSPublisher) Close() error {
	return nil
}
