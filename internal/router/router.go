package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrTopicExists   = errors.New("topic already registered")
	ErrTopicNotFound = errors.New("topic not registered")
)

// Request is one inbound broker message.
type Request struct {
	Topic      string
	Payload    []byte
	ReceivedAt time.Time
}

// Reply is the serialized envelope returned to the requester. Status mirrors
// the envelope's httpStatus so middleware can act on it without decoding.
type Reply struct {
	Status int
	Body   []byte
}

type HandlerFunc func(ctx context.Context, req *Request) *Reply

type Middleware func(next HandlerFunc) HandlerFunc

// Responder binds a topic to a function producing the reply text.
// pkg/messaging implementations satisfy it.
type Responder interface {
	Respond(ctx context.Context, topic string, fn func(ctx context.Context, payload []byte) []byte) error
}

// Registrar is implemented by resource handlers.
type Registrar interface {
	RegisterTopics(r *Router) error
}

type Router struct {
	mu         sync.RWMutex
	handlers   map[string]HandlerFunc
	middleware []Middleware
}

func New() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Use appends dispatch middleware. The first middleware added is the
// outermost one.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
}

func (r *Router) Handle(topic string, fn HandlerFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[topic]; ok {
		return fmt.Errorf("%w: %s", ErrTopicExists, topic)
	}
	r.handlers[topic] = fn
	return nil
}

// Register lets each registrar add its topics.
func (r *Router) Register(registrars ...Registrar) error {
	for _, reg := range registrars {
		if err := reg.RegisterTopics(r); err != nil {
			return err
		}
	}
	return nil
}

// Topics returns the registered topic names in sorted order.
func (r *Router) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Dispatch runs the handler registered for topic through the middleware
// chain and returns the reply body.
func (r *Router) Dispatch(ctx context.Context, topic string, payload []byte) ([]byte, error) {
	h, err := r.lookup(topic)
	if err != nil {
		return nil, err
	}

	reply := h(ctx, &Request{Topic: topic, Payload: payload, ReceivedAt: time.Now()})
	if reply == nil {
		return nil, fmt.Errorf("handler for %s returned no reply", topic)
	}
	return reply.Body, nil
}

// Serve binds every registered topic to the responder.
func (r *Router) Serve(ctx context.Context, responder Responder) error {
	for _, topic := range r.Topics() {
		topic := topic
		err := responder.Respond(ctx, topic, func(ctx context.Context, payload []byte) []byte {
			body, err := r.Dispatch(ctx, topic, payload)
			if err != nil {
				return nil
			}
			return body
		})
		if err != nil {
			return fmt.Errorf("failed to bind topic %s: %w", topic, err)
		}
	}
	return nil
}

func (r *Router) lookup(topic string) (HandlerFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, topic)
	}
	for i := len(r.middleware) - 1; i >= 0; i-- {
		h = r.middleware[i](h)
	}
	return h, nil
}
