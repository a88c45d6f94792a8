package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"

	"car-park/internal/logging"
)

const DefaultExchange = "carpark.events"

// ErrPublisherUnavailable is returned while the publisher waits out the
// cooldown after a failed reconnect.
var ErrPublisherUnavailable = errors.New("amqp publisher unavailable")

type AMQPConfig struct {
	URL      string
	Exchange string
	// MaxTries bounds dial attempts at startup. Zero means 5.
	MaxTries uint
	// ReconnectTimeout bounds the single dial made when publishing on a
	// closed channel. Zero means 2s.
	ReconnectTimeout time.Duration
	// ReconnectCooldown is how long publishes fail fast after a failed
	// reconnect. Zero means 10s.
	ReconnectCooldown time.Duration
}

func (c AMQPConfig) withDefaults() AMQPConfig {
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	if c.MaxTries == 0 {
		c.MaxTries = 5
	}
	if c.ReconnectTimeout <= 0 {
		c.ReconnectTimeout = 2 * time.Second
	}
	if c.ReconnectCooldown <= 0 {
		c.ReconnectCooldown = 10 * time.Second
	}
	return c
}

// AMQPPublisher publishes events as persistent JSON messages on a durable
// topic exchange, routed by event type. Only the initial connection retries
// with backoff; on the publish path a lost channel gets one bounded dial.
type AMQPPublisher struct {
	cfg  AMQPConfig
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
	// retryAfter blocks reconnects until the cooldown has passed.
	retryAfter time.Time
	now        func() time.Time
}

func NewAMQPPublisher(ctx context.Context, cfg AMQPConfig) (*AMQPPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url is required")
	}

	p := newAMQPPublisher(cfg)
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func newAMQPPublisher(cfg AMQPConfig) *AMQPPublisher {
	return &AMQPPublisher{cfg: cfg.withDefaults(), now: time.Now}
}

func (p *AMQPPublisher) connect(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second

	conn, err := backoff.Retry(ctx, func() (*amqp.Connection, error) {
		conn, err := amqp.Dial(p.cfg.URL)
		if err != nil {
			logging.Warn(ctx).Err(err).Msg("amqp dial failed")
		}
		return conn, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(p.cfg.MaxTries),
	)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	return p.open(conn)
}

func (p *AMQPPublisher) reconnect(ctx context.Context) error {
	if p.now().Before(p.retryAfter) {
		return ErrPublisherUnavailable
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn, p.ch = nil, nil
	}

	timeout := p.cfg.ReconnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err == nil {
		err = p.open(conn)
	}
	if err != nil {
		p.retryAfter = p.now().Add(p.cfg.ReconnectCooldown)
		logging.Warn(ctx).Err(err).Dur("cooldown", p.cfg.ReconnectCooldown).Msg("amqp reconnect failed")
		return fmt.Errorf("amqp reconnect: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) open(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel open: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("amqp exchange declare: %w", err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.reconnect(ctx); err != nil {
			return err
		}
	}

	if err := p.ch.PublishWithContext(ctx,
		p.cfg.Exchange,
		string(event.Type),
		false, // mandatory
		false, // immediate
		msg,
	); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}

func newPublishing(event Event) (amqp.Publishing, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	}, nil
}
