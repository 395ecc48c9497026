package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestForRequestAddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewLogger(zap.New(core))

	l.ForRequest("req-1", "POST", "/api/model/evaluate").Infow("handled", "status", 200)

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, int64(200), fields["status"])
}

func TestContextRoundTrip(t *testing.T) {
	fallback := NewNop()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	l := NewNop()
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx, fallback))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zap.ErrorLevel, parseLevel("error"))
}
