package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := GlobalLogger
	buf := &bytes.Buffer{}
	SetLogger(slog.New(slog.NewJSONHandler(buf, nil)))
	t.Cleanup(func() { GlobalLogger = prev })
	return buf
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ExtractCorrelationID(ctx))

	id := GenerateCorrelationID()
	require.NotEmpty(t, id)
	assert.NotEqual(t, id, GenerateCorrelationID())

	ctx = WithCorrelationID(ctx, id)
	assert.Equal(t, id, ExtractCorrelationID(ctx))
}

func TestRepoLogger(t *testing.T) {
	buf := captureLogs(t)
	ctx := WithCorrelationID(context.Background(), "corr-1")

	l := NewRepoLogger("posts")
	l.LogCreate(ctx, map[string]interface{}{"id": 7})
	l.LogError(ctx, errors.New("boom"), "create")

	out := buf.String()
	assert.Contains(t, out, `"table":"posts"`)
	assert.Contains(t, out, `"msg":"repository create"`)
	assert.Contains(t, out, `"correlation_id":"corr-1"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestRepoLogger_Disabled(t *testing.T) {
	buf := captureLogs(t)
	Config.EnableRepoLogging = false
	defer func() { Config.EnableRepoLogging = true }()

	NewRepoLogger("likes").LogDelete(context.Background(), nil)
	assert.Empty(t, buf.String())
}

func TestAsyncOperationLogging(t *testing.T) {
	buf := captureLogs(t)
	ctx := context.Background()

	LogAsyncOperationStart(ctx, "remote_sign_out", map[string]interface{}{"user_id": 3})
	LogAsyncOperationError(ctx, "remote_sign_out", errors.New("offline"), nil)
	LogAsyncOperationEnd(ctx, "remote_sign_out", nil)

	out := buf.String()
	assert.Contains(t, out, "async operation started")
	assert.Contains(t, out, "async operation failed")
	assert.Contains(t, out, "async operation completed")
	assert.Contains(t, out, `"error":"offline"`)
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "crwn-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	span, ctx := TraceService(context.Background(), "PostService", "ListPosts")
	assert.NotNil(t, ctx)
	span.SetError(errors.New("ignored"))
	span.End()
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}
