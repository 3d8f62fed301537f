package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/pkg/messaging"
)

// Envelope wraps a request published on a topic channel. Payload is the
// request text as sent, so malformed JSON still reaches the handler. The
// responder publishes the reply text on ReplyTo.
type Envelope struct {
	ReplyTo string `json:"replyTo"`
	Payload string `json:"payload"`
}

// PubSub is the channel-level transport the broker is built on.
type PubSub interface {
	Publish(ctx context.Context, channel string, message []byte) error
	// Subscribe is confirmed when it returns; the channel closes once ctx is
	// done or the subscription is closed.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Broker layers request/reply over Redis pub/sub. Pub/sub has no queue
// groups, so every replica subscribed to a topic answers it and the
// requester keeps the first reply.
type Broker struct {
	ps     PubSub
	cfg    messaging.Config
	logger *zerolog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   []context.CancelFunc
	inflight sync.WaitGroup
}

var _ messaging.Broker = (*Broker)(nil)

func New(ps PubSub, cfg messaging.Config, logger *zerolog.Logger) *Broker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broker{ps: ps, cfg: cfg, logger: logger}
}

// Connect parses cfg.URL (redis://...) and pings the server.
func Connect(cfg messaging.Config, logger *zerolog.Logger) (*Broker, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.Name != "" {
		opts.ClientName = cfg.Name
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return New(&clientPubSub{client: client}, cfg, logger), nil
}

func (b *Broker) Respond(ctx context.Context, topic string, fn func(ctx context.Context, payload []byte) []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return messaging.ErrClosed
	}
	subCtx, cancel := context.WithCancel(context.Background())
	b.cancel = append(b.cancel, cancel)
	b.mu.Unlock()

	msgs, err := b.ps.Subscribe(subCtx, topic)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		for raw := range msgs {
			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil || env.ReplyTo == "" {
				b.logger.Debug().Str("topic", topic).Msg("dropping malformed request envelope")
				continue
			}
			if !b.track() {
				continue
			}
			go b.answer(ctx, topic, env, fn)
		}
	}()
	return nil
}

func (b *Broker) answer(ctx context.Context, topic string, env Envelope, fn func(ctx context.Context, payload []byte) []byte) {
	defer b.inflight.Done()

	reply := fn(ctx, []byte(env.Payload))
	if reply == nil {
		return
	}
	if err := b.ps.Publish(context.Background(), env.ReplyTo, reply); err != nil {
		b.logger.Error().Err(err).Str("topic", topic).Msg("failed to publish reply")
	}
}

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

	replyTo := "reply." + uuid.New().String()
	replies, err := b.ps.Subscribe(ctx, replyTo)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", replyTo, err)
	}

	env, err := json.Marshal(Envelope{ReplyTo: replyTo, Payload: string(payload)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := b.ps.Publish(ctx, topic, env); err != nil {
		return nil, fmt.Errorf("publish %s: %w", topic, err)
	}

	select {
	case reply, ok := <-replies:
		if ok {
			return reply, nil
		}
		if ctx.Err() == nil {
			return nil, messaging.ErrClosed
		}
	case <-ctx.Done():
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s", messaging.ErrTimeout, topic)
	}
	return nil, ctx.Err()
}

// Close stops the topic subscriptions, waits for in-flight handlers and
// closes the client.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancels := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	b.inflight.Wait()
	return b.ps.Close()
}

type clientPubSub struct {
	client *redis.Client
}

func (c *clientPubSub) Publish(ctx context.Context, channel string, message []byte) error {
	return c.client.Publish(ctx, channel, message).Err()
}

func (c *clientPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := c.client.Subscribe(ctx, channel)
	// Wait for the confirmation so a reply published right after Request
	// publishes cannot be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	msgChan := make(chan []byte, 100)
	go func() {
		defer func() {
			pubsub.Close()
			close(msgChan)
		}()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case msgChan <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return msgChan, nil
}

func (c *clientPubSub) Close() error {
	return c.client.Close()
}
