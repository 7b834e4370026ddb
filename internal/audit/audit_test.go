package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/pipeline"
	"gatehouse.org/internal/rls"
)

func capture() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewWithLogger(zerolog.New(buf)), buf
}

func lastEvent(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var out map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestLogEnrichment(t *testing.T) {
	l, buf := capture()

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = rls.WithActor(ctx, rls.Actor{UserID: "u1", Role: "admin"})
	l.Log(ctx, "session.created", map[string]any{"session_id": "s1"})

	got := lastEvent(t, buf)
	require.Equal(t, "session.created", got["event"])
	require.Equal(t, "req-1", got["request_id"])
	require.Equal(t, "u1", got["actor_id"])
	require.Equal(t, "admin", got["actor_role"])
	require.Equal(t, "s1", got["session_id"])
}

func TestLogWithoutContext(t *testing.T) {
	l, buf := capture()
	l.Log(context.Background(), "engine.initialized", nil)

	got := lastEvent(t, buf)
	require.Equal(t, "engine.initialized", got["event"])
	require.NotContains(t, got, "request_id")
	require.NotContains(t, got, "actor_id")
}

func TestHookAuditsMutationsOnly(t *testing.T) {
	l, buf := capture()
	hook := l.Hook()

	octx := pipeline.NewContext("documents", pipeline.OpGet, nil, nil)
	_, err := hook(context.Background(), octx)
	require.NoError(t, err)
	require.Zero(t, buf.Len(), "reads are not audited")

	octx = pipeline.NewContext("documents", pipeline.OpDelete, &auth.User{ID: "u1"}, nil)
	octx.SoftDelete = true
	_, err = hook(context.Background(), octx)
	require.NoError(t, err)

	got := lastEvent(t, buf)
	require.Equal(t, "entity.delete", got["event"])
	require.Equal(t, "documents", got["entity"])
	require.Equal(t, true, got["soft_delete"])
	require.Equal(t, "u1", got["user_id"])
}
