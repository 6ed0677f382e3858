// Package publish sends generated external records to RabbitMQ.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes one persistent JSON message per external record to a
// fanout exchange. It is safe for concurrent use.
type Publisher struct {
	channel  Channel
	conn     io.Closer
	exchange string
	logger   logrus.FieldLogger
	now      func() time.Time

	mu sync.Mutex
}

// Dial connects to the broker in cfg and declares its exchange.
func Dial(cfg config.RabbitMQConfig, logger logrus.FieldLogger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create channel: %w", err)
	}

	p, err := New(ch, cfg.Exchange, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// New declares exchange on ch and returns a publisher for it.
func New(ch Channel, exchange string, logger logrus.FieldLogger) (*Publisher, error) {
	if exchange == "" {
		ch.Close()
		return nil, errors.New("exchange name cannot be empty")
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Publish sends records in order and returns how many were sent. It stops
// at the first failure.
func (p *Publisher) Publish(ctx context.Context, event model.Event, records []*model.ExternalRecord) (int, error) {
	for i, rec := range records {
		if err := p.publish(ctx, event, rec); err != nil {
			return i, fmt.Errorf("publish record %s: %w", rec.ID, err)
		}
	}
	p.logger.WithFields(logrus.Fields{
		"exchange": p.exchange,
		"event":    event,
		"records":  len(records),
	}).Info("published external records")
	return len(records), nil
}

func (p *Publisher) publish(ctx context.Context, event model.Event, rec *model.ExternalRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	key := rec.Key()
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    rec.ID,
		Timestamp:    p.now(),
		Type:         "booking",
		Headers: amqp.Table{
			"instructionEvent": event.String(),
			"externalDealId":   key.ExternalDealID,
			"comment":          key.Comment,
			"navType":          key.NavType,
			"typology":         key.Typology.String(),
		},
		Body: body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, p.exchange, "", false, false, msg)
}

// Close releases the channel and, for a dialled publisher, the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	err := p.channel.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
