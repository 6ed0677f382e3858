package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	exchanges  []string
	failAfter  int
	declareErr error
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	if c.declareErr != nil {
		return c.declareErr
	}
	c.declared = append(c.declared, name+":"+kind)
	if !durable {
		return errors.New("expected durable exchange")
	}
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	if c.failAfter > 0 && len(c.published) == c.failAfter {
		return errors.New("channel closed")
	}
	c.exchanges = append(c.exchanges, exchange)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func records() []*model.ExternalRecord {
	return []*model.ExternalRecord{
		{ID: "r1", ExternalDealID: "D1", GroupComment: "C", GroupNavType: "NAV1", GroupTypology: "FX Swap", LegType: "NEAR"},
		{ID: "r2", ExternalDealID: "D1", GroupComment: "C", GroupNavType: "NAV1", GroupTypology: "FX Swap", LegType: "FAR"},
	}
}

func TestPublishSendsOneMessagePerRecord(t *testing.T) {
	ch := &fakeChannel{}
	p, err := New(ch, "fx.bookings", nil)
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC) }

	n, err := p.Publish(context.Background(), model.EventInception, records())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{"fx.bookings:fanout"}, ch.declared)
	assert.Equal(t, []string{"fx.bookings", "fx.bookings"}, ch.exchanges)

	msg := ch.published[1]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "r2", msg.MessageId)
	assert.Equal(t, "D1", msg.Headers["externalDealId"])
	assert.Equal(t, "NAV1", msg.Headers["navType"])
	assert.Equal(t, "FX Swap", msg.Headers["typology"])
	assert.Equal(t, "Inception", msg.Headers["instructionEvent"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "FAR", body["legType"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublishStopsAtFirstFailure(t *testing.T) {
	ch := &fakeChannel{failAfter: 1}
	p, err := New(ch, "fx.bookings", nil)
	require.NoError(t, err)

	n, err := p.Publish(context.Background(), model.EventInception, records())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "r2")
}

func TestNewFailures(t *testing.T) {
	ch := &fakeChannel{}
	_, err := New(ch, "", nil)
	assert.Error(t, err)
	assert.True(t, ch.closed)

	ch = &fakeChannel{declareErr: errors.New("access refused")}
	_, err = New(ch, "fx.bookings", nil)
	assert.ErrorContains(t, err, "access refused")
	assert.True(t, ch.closed)
}
