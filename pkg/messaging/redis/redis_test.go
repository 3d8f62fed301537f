package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-service/pkg/messaging"
)

// memPubSub delivers messages to every live subscriber of a channel.
type memPubSub struct {
	mu     sync.Mutex
	subs   map[string][]chan []byte
	sent   []string
	closed bool
}

func newMemPubSub() *memPubSub {
	return &memPubSub{subs: map[string][]chan []byte{}}
}

func (m *memPubSub) Publish(ctx context.Context, channel string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, channel)
	for _, ch := range m.subs[channel] {
		select {
		case ch <- message:
		default:
		}
	}
	return nil
}

func (m *memPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 8)
	m.mu.Lock()
	m.subs[channel] = append(m.subs[channel], ch)
	m.mu.Unlock()

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer m.unsubscribe(channel, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *memPubSub) unsubscribe(channel string, ch chan []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[channel]
	for i, c := range subs {
		if c == ch {
			m.subs[channel] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (m *memPubSub) Close() error {
	m.closed = true
	return nil
}

func TestRequestReply(t *testing.T) {
	ps := newMemPubSub()
	b := New(ps, messaging.Config{}, nil)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.Respond(context.Background(), "v1/clinics/read", func(ctx context.Context, payload []byte) []byte {
		return append([]byte("re:"), payload...)
	}))

	out, err := b.Request(context.Background(), "v1/clinics/read", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `re:{"a":1}`, string(out))
}

func TestRequestReply_MalformedPayloadIsForwarded(t *testing.T) {
	ps := newMemPubSub()
	b := New(ps, messaging.Config{}, nil)
	t.Cleanup(func() { _ = b.Close() })

	var got []byte
	require.NoError(t, b.Respond(context.Background(), "v1/x", func(ctx context.Context, payload []byte) []byte {
		got = payload
		return []byte("ok")
	}))

	_, err := b.Request(context.Background(), "v1/x", []byte(`{not json`))
	require.NoError(t, err)
	assert.Equal(t, `{not json`, string(got))
}

func TestRequest_Timeout(t *testing.T) {
	ps := newMemPubSub()
	b := New(ps, messaging.Config{RequestTimeout: 20 * time.Millisecond}, nil)

	_, err := b.Request(context.Background(), "v1/nobody", []byte("{}"))
	assert.ErrorIs(t, err, messaging.ErrTimeout)
}

func TestRespond_NilReplyIsDropped(t *testing.T) {
	ps := newMemPubSub()
	b := New(ps, messaging.Config{RequestTimeout: 50 * time.Millisecond}, nil)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.Respond(context.Background(), "v1/x", func(context.Context, []byte) []byte { return nil }))

	_, err := b.Request(context.Background(), "v1/x", []byte("{}"))
	assert.True(t, errors.Is(err, messaging.ErrTimeout))
}

func TestRequest_EnvelopeShape(t *testing.T) {
	ps := newMemPubSub()
	raw, err := ps.Subscribe(context.Background(), "v1/x")
	require.NoError(t, err)

	b := New(ps, messaging.Config{RequestTimeout: 20 * time.Millisecond}, nil)
	go func() { _, _ = b.Request(context.Background(), "v1/x", []byte(`{"id":1}`)) }()

	select {
	case msg := <-raw:
		var env Envelope
		require.NoError(t, json.Unmarshal(msg, &env))
		assert.Regexp(t, `^reply\.[0-9a-f-]{36}$`, env.ReplyTo)
		assert.Equal(t, `{"id":1}`, env.Payload)
	case <-time.After(time.Second):
		t.Fatal("request not published")
	}
}

func TestClose(t *testing.T) {
	ps := newMemPubSub()
	b := New(ps, messaging.Config{}, nil)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.True(t, ps.closed)
	assert.ErrorIs(t, b.Respond(context.Background(), "v1/x", nil), messaging.ErrClosed)
}
