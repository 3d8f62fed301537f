// Package messaging defines the request/reply transport the service is
// reachable over. Adapters live in the nats and redis subpackages.
package messaging

import (
	"context"
	"errors"
	"time"
)

// DefaultRequestTimeout is how long a requester waits for a reply.
const DefaultRequestTimeout = 5000 * time.Millisecond

var (
	// ErrTimeout is returned by Request when no reply arrived in time.
	ErrTimeout = errors.New("no reply before timeout")
	ErrClosed  = errors.New("broker closed")
)

// Responder answers requests published on topics. fn produces the reply
// text; a nil reply leaves the request unanswered.
type Responder interface {
	Respond(ctx context.Context, topic string, fn func(ctx context.Context, payload []byte) []byte) error
	Close() error
}

// Requester sends one request and waits for its reply.
type Requester interface {
	Request(ctx context.Context, topic string, payload []byte) ([]byte, error)
	Close() error
}

// Broker is a transport that can do both.
type Broker interface {
	Responder
	Requester
}

// Config selects and configures a transport.
type Config struct {
	// Driver is "nats" or "redis".
	Driver         string
	URL            string
	QueueGroup     string
	Name           string
	RequestTimeout time.Duration
}

// Timeout returns the configured request timeout or the default.
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}
