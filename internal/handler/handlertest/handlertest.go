// Package handlertest has helpers for exercising topic handlers through a
// router.
package handlertest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-service/internal/router"
)

// Token returns an HS256 token carrying id and role. The signature is never
// checked by the service.
func Token(t *testing.T, id int64, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": id, "role": role}).
		SignedString([]byte("unused"))
	require.NoError(t, err)
	return s
}

// Envelope is a decoded reply.
type Envelope map[string]interface{}

func (e Envelope) Status() int {
	s, _ := e["httpStatus"].(float64)
	return int(s)
}

func (e Envelope) Message() interface{} { return e["message"] }

// Object returns the resource stored under key as a JSON object.
func (e Envelope) Object(key string) map[string]interface{} {
	m, _ := e[key].(map[string]interface{})
	return m
}

// List returns the resource stored under key as a JSON array.
func (e Envelope) List(key string) []interface{} {
	l, _ := e[key].([]interface{})
	return l
}

// Call marshals payload, dispatches it on topic and decodes the reply.
// A []byte or string payload is sent as is.
func Call(t *testing.T, r *router.Router, topic string, payload interface{}) Envelope {
	t.Helper()

	var raw []byte
	switch p := payload.(type) {
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		var err error
		raw, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	body, err := r.Dispatch(context.Background(), topic, raw)
	require.NoError(t, err)

	var out Envelope
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}
