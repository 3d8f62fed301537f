package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/scheduling-service/pkg/messaging"
)

type fakeBroker struct {
	topic   string
	payload []byte
	reply   []byte
	err     error
}

func (b *fakeBroker) Respond(context.Context, string, func(context.Context, []byte) []byte) error {
	return nil
}

func (b *fakeBroker) Request(ctx context.Context, topic string, payload []byte) ([]byte, error) {
	b.topic, b.payload = topic, payload
	return b.reply, b.err
}

func (b *fakeBroker) Close() error { return nil }

func dialer(b *fakeBroker, got *messaging.Config) dialFunc {
	return func(cfg messaging.Config, _ *zerolog.Logger) (messaging.Broker, error) {
		*got = cfg
		return b, nil
	}
}

func TestRun(t *testing.T) {
	t.Setenv("BROKER_URL", "nats://localhost:4222")
	t.Setenv("REQUEST_TIMEOUT", "2s")

	b := &fakeBroker{reply: []byte(`{"httpStatus":200}`)}
	var cfg messaging.Config
	var stdout, stderr bytes.Buffer

	code := run([]string{"v1/clinics/get", `{"clinicId":1}`}, nil, &stdout, &stderr, dialer(b, &cfg))

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "v1/clinics/get", b.topic)
	assert.Equal(t, `{"clinicId":1}`, string(b.payload))
	assert.Equal(t, "{\"httpStatus\":200}\n", stdout.String())
	assert.Equal(t, "nats", cfg.Driver)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestRun_PayloadFromStdin(t *testing.T) {
	t.Setenv("BROKER_URL", "redis://localhost:6379")
	t.Setenv("BROKER_DRIVER", "redis")

	b := &fakeBroker{reply: []byte("{}")}
	var cfg messaging.Config
	var stdout, stderr bytes.Buffer

	code := run([]string{"v1/users/read", "-"}, strings.NewReader("7"), &stdout, &stderr, dialer(b, &cfg))

	assert.Equal(t, 0, code)
	assert.Equal(t, "7", string(b.payload))
	assert.Equal(t, "redis", cfg.Driver)
	assert.Equal(t, 5000*time.Millisecond, cfg.RequestTimeout)
}

func TestRun_Timeout(t *testing.T) {
	t.Setenv("BROKER_URL", "nats://localhost:4222")

	b := &fakeBroker{err: fmt.Errorf("%w: v1/x", messaging.ErrTimeout)}
	var cfg messaging.Config
	var stdout, stderr bytes.Buffer

	code := run([]string{"v1/x"}, nil, &stdout, &stderr, dialer(b, &cfg))

	assert.Equal(t, 1, code)
	assert.Equal(t, "{}", string(b.payload))
	assert.Contains(t, stderr.String(), "no reply on v1/x")
	assert.Empty(t, stdout.String())
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, nil, &stdout, &stderr, nil)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "usage")
}

func TestRun_MissingURL(t *testing.T) {
	t.Setenv("BROKER_URL", "")
	os.Unsetenv("BROKER_URL")
	var stdout, stderr bytes.Buffer
	code := run([]string{"v1/x"}, nil, &stdout, &stderr, nil)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "BROKER_URL")
}
