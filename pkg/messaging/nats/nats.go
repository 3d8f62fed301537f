package nats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/pkg/messaging"
)

// Conn is the part of *nats.Conn the broker uses.
type Conn interface {
	QueueSubscribe(subject, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subject string, data []byte) error
	RequestWithContext(ctx context.Context, subject string, data []byte) (*nats.Msg, error)
	Drain() error
}

// Broker answers requests through queue-group subscriptions, so each request
// is handled by one replica only.
type Broker struct {
	conn   Conn
	cfg    messaging.Config
	logger *zerolog.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

var _ messaging.Broker = (*Broker)(nil)

func New(conn Conn, cfg messaging.Config, logger *zerolog.Logger) *Broker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broker{conn: conn, cfg: cfg, logger: logger}
}

// Connect dials cfg.URL and returns a broker owning the connection.
func Connect(cfg messaging.Config, logger *zerolog.Logger) (*Broker, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url required")
	}

	opts := []nats.Option{nats.MaxReconnects(-1)}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return New(nc, cfg, logger), nil
}

func (b *Broker) Respond(ctx context.Context, topic string, fn func(ctx context.Context, payload []byte) []byte) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return messaging.ErrClosed
	}

	_, err := b.conn.QueueSubscribe(topic, b.cfg.QueueGroup, func(msg *nats.Msg) {
		if msg.Reply == "" {
			b.logger.Debug().Str("topic", topic).Msg("dropping message without reply subject")
			return
		}

		if !b.track() {
			return
		}
		go func() {
			defer b.inflight.Done()
			reply := fn(ctx, msg.Data)
			if reply == nil {
				return
			}
			if err := b.conn.Publish(msg.Reply, reply); err != nil {
				b.logger.Error().Err(err).Str("topic", topic).Msg("failed to publish reply")
			}
		}()
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// track registers an in-flight handler unless the broker is closing.
func (b *Broker) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.inflight.Add(1)
	return true
}

func (b *Broker) Request(ctx context.Context, topic string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout())
	defer cancel()

	msg, err := b.conn.RequestWithContext(ctx, topic, payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", messaging.ErrTimeout, topic)
		}
		return nil, fmt.Errorf("request %s: %w", topic, err)
	}
	return msg.Data, nil
}

// Close waits for in-flight handlers and drains the connection.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.inflight.Wait()
	return b.conn.Drain()
}
