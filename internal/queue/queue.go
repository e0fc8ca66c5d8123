// Package queue wraps NATS JetStream with the publish/consume surface the
// grading pipeline needs: durable at-least-once delivery with explicit
// acknowledgement after the side effect has completed.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/kodegym/kodegym/internal/middleware"
)

// StreamName is the JetStream stream carrying all pipeline subjects.
const StreamName = "LEARNING"

// correlationHeader carries the request correlation id across services so a
// submission can be traced from HTTP request to grading verdict to error
// event.
const correlationHeader = "X-Correlation-ID"

// ErrRetryable marks a handler failure as transient. The consumer NAKs the
// message for redelivery instead of acknowledging it away.
var ErrRetryable = errors.New("retryable failure")

// Retryable wraps err so the consumer schedules a redelivery.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}

// Config groups connection options.
type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	Logger        zerolog.Logger
}

// Connect establishes the NATS connection with bounded reconnect behaviour.
// Exhausting the retry budget closes the connection; that is a fatal
// condition for the owning service, not a per-message failure.
func Connect(cfg Config) (*nats.Conn, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	logger := cfg.Logger.With().Str("component", "queue").Logger()

	conn, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("queue connection lost")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("queue connection restored")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Error().Msg("queue connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return conn, nil
}

// EnsureStream provisions the durable stream for the given subjects. Safe to
// call from every service at startup.
func EnsureStream(conn *nats.Conn, subjects ...string) error {
	js, err := conn.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  subjects,
		Storage:   nats.FileStorage,
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("provision stream %s: %w", StreamName, err)
	}

	return nil
}

// Publisher sends JSON payloads to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// NewPublisher builds a JetStream-backed publisher.
func NewPublisher(conn *nats.Conn, logger zerolog.Logger) (Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	return &jetStreamPublisher{
		js:     js,
		logger: logger.With().Str("component", "queue_publisher").Logger(),
	}, nil
}

type jetStreamPublisher struct {
	js     nats.JetStreamContext
	logger zerolog.Logger
}

func (p *jetStreamPublisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}

	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		msg.Header.Set(correlationHeader, id)
	}

	if _, err := p.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	p.logger.Debug().Str("subject", subject).Msg("message published")
	return nil
}

// Handler processes one message body. Returning nil or a non-retryable error
// acknowledges the message (processed, or explicitly dropped); wrapping the
// error with Retryable requests redelivery instead.
type Handler func(ctx context.Context, data []byte) error

// Consumer runs durable queue subscriptions against the stream.
type Consumer struct {
	js      nats.JetStreamContext
	logger  zerolog.Logger
	timeout time.Duration
}

// NewConsumer builds a consumer. perMessageTimeout bounds handler execution
// so a stuck dependency cannot wedge the subscription.
func NewConsumer(conn *nats.Conn, perMessageTimeout time.Duration, logger zerolog.Logger) (*Consumer, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	if perMessageTimeout <= 0 {
		perMessageTimeout = 30 * time.Second
	}

	return &Consumer{
		js:      js,
		logger:  logger.With().Str("component", "queue_consumer").Logger(),
		timeout: perMessageTimeout,
	}, nil
}

// Consume starts a durable queue subscription on subject. The subscription is
// drained when ctx is cancelled. Handler panics are recovered and treated as
// a drop so one poison message never kills the loop.
func (c *Consumer) Consume(ctx context.Context, subject, durable string, handler Handler) error {
	sub, err := c.js.QueueSubscribe(subject, durable, func(msg *nats.Msg) {
		c.handle(ctx, subject, msg, handler)
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.AckWait(c.timeout+10*time.Second),
		nats.MaxDeliver(5),
	)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			c.logger.Warn().Err(err).Str("subject", subject).Msg("failed to drain subscription")
		}
	}()

	c.logger.Info().Str("subject", subject).Str("durable", durable).Msg("consumer started")
	return nil
}

func (c *Consumer) handle(parent context.Context, subject string, msg *nats.Msg, handler Handler) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	ctx = middleware.ContextWithCorrelation(ctx, msg.Header.Get(correlationHeader))

	err := c.invoke(ctx, msg.Data, handler)
	switch {
	case err == nil:
		c.ack(subject, msg)
	case errors.Is(err, ErrRetryable):
		c.logger.Warn().Err(err).Str("subject", subject).Msg("transient failure, requesting redelivery")
		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Error().Err(nakErr).Str("subject", subject).Msg("failed to nak message")
		}
	default:
		c.logger.Warn().Err(err).Str("subject", subject).Msg("message dropped")
		c.ack(subject, msg)
	}
}

func (c *Consumer) invoke(ctx context.Context, data []byte, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, data)
}

func (c *Consumer) ack(subject string, msg *nats.Msg) {
	if err := msg.Ack(); err != nil {
		c.logger.Error().Err(err).Str("subject", subject).Msg("failed to ack message")
	}
}
