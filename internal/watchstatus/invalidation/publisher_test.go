package invalidation_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/invalidation"
	"github.com/narwhalmedia/watchstate/pkg/logger"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	published  []published
	publishErr error
	flushes    int
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, published{subject: subject, data: data})
	return nil
}

func (c *fakeConn) FlushWithContext(ctx context.Context) error {
	c.flushes++
	return nil
}

func TestNATSPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	p := invalidation.NewNATSPublisher(conn, "watchstate.invalidate", logger.NewNoop())
	profile := uuid.New()
	keys := []domain.ShowKey{{ProfileID: profile, ShowID: 1}, {ProfileID: profile, ShowID: 2}}

	require.NoError(t, p.Publish(context.Background(), "recompute", keys))

	require.Len(t, conn.published, 2)
	assert.Equal(t, 1, conn.flushes)
	assert.Equal(t, "watchstate.invalidate."+profile.String(), conn.published[0].subject)

	var msg invalidation.Message
	require.NoError(t, json.Unmarshal(conn.published[1].data, &msg))
	assert.Equal(t, profile, msg.ProfileID)
	assert.Equal(t, int64(2), msg.ShowID)
	assert.Equal(t, "recompute", msg.Operation)
	assert.False(t, msg.OccurredAt.IsZero())
}

func TestNATSPublisher_NothingToPublish(t *testing.T) {
	conn := &fakeConn{}
	p := invalidation.NewNATSPublisher(conn, "watchstate.invalidate", logger.NewNoop())

	require.NoError(t, p.Publish(context.Background(), "recompute", nil))
	assert.Empty(t, conn.published)
	assert.Zero(t, conn.flushes)
}

func TestNATSPublisher_PublishError(t *testing.T) {
	conn := &fakeConn{publishErr: errors.New("nats: connection closed")}
	p := invalidation.NewNATSPublisher(conn, "watchstate.invalidate", logger.NewNoop())

	err := p.Publish(context.Background(), "mark_show", []domain.ShowKey{{ProfileID: uuid.New(), ShowID: 3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	profile := uuid.New()
	keys := []domain.ShowKey{{ProfileID: profile, ShowID: 10}, {ProfileID: profile, ShowID: 11}}

	for range keys {
		producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			key, err := msg.Key.Encode()
			if err != nil {
				return err
			}
			if !strings.HasPrefix(string(key), profile.String()+"/") {
				return errors.New("unexpected key " + string(key))
			}
			if msg.Topic != "watchstate.invalidations" {
				return errors.New("unexpected topic " + msg.Topic)
			}
			return nil
		})
	}

	p := invalidation.NewKafkaPublisher(producer, "watchstate.invalidations")
	require.NoError(t, p.Publish(context.Background(), "add_favorite", keys))
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := invalidation.NewKafkaPublisher(producer, "watchstate.invalidations")
	err := p.Publish(context.Background(), "remove_favorite", []domain.ShowKey{{ProfileID: uuid.New(), ShowID: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestNoopPublisher(t *testing.T) {
	p := invalidation.NewNoopPublisher()
	assert.NoError(t, p.Publish(context.Background(), "recompute", []domain.ShowKey{{ShowID: 1}}))
	assert.NoError(t, p.Close())
}
