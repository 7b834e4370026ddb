package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"gatehouse.org/internal/auth"
)

func record(log *[]string, name string) Func {
	return func(_ context.Context, octx *OpContext) (*OpContext, error) {
		*log = append(*log, name)
		return octx, nil
	}
}

func TestUseValidation(t *testing.T) {
	p := New()
	noop := func(_ context.Context, octx *OpContext) (*OpContext, error) { return octx, nil }

	require.ErrorIs(t, p.Use("around", OpCreate, "", noop), ErrUnknownHook)
	require.ErrorIs(t, p.Use(Before, "destroy", "", noop), ErrUnknownOperation)
	require.ErrorIs(t, p.Use(Before, OpCreate, "", nil), ErrNilHandler)
	require.NoError(t, p.Use(Before, OpCreate, "", noop))
}

func TestHandlersOrderAndNeverNil(t *testing.T) {
	p := New()
	var log []string
	require.NoError(t, p.Use(Before, OpCreate, "documents", record(&log, "specific-1")))
	require.NoError(t, p.Use(Before, OpCreate, "", record(&log, "wildcard")))
	require.NoError(t, p.Use(Before, OpCreate, "documents", record(&log, "specific-2")))

	chain := p.Handlers(Before, OpCreate, "documents")
	require.Len(t, chain, 3)

	_, err := p.Execute(context.Background(), Before, NewContext("documents", OpCreate, nil, nil))
	require.NoError(t, err)
	require.Equal(t, []string{"wildcard", "specific-1", "specific-2"}, log,
		"wildcard handlers run first, then entity-specific in registration order")

	empty := p.Handlers(After, OpDelete, "documents")
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestExecuteAbortStopsChain(t *testing.T) {
	p := New()
	var log []string
	require.NoError(t, p.Use(Before, OpCreate, "", func(_ context.Context, octx *OpContext) (*OpContext, error) {
		log = append(log, "abort")
		octx.Abort = true
		return octx, nil
	}))
	require.NoError(t, p.Use(Before, OpCreate, "documents", record(&log, "specific")))

	octx, err := p.Execute(context.Background(), Before, NewContext("documents", OpCreate, nil, nil))
	require.NoError(t, err)
	require.True(t, octx.Abort)
	require.Equal(t, []string{"abort"}, log, "entity-specific handlers must not run after abort")
}

func TestExecuteErrorStopsChain(t *testing.T) {
	p := New()
	boom := errors.New("boom")
	var log []string
	require.NoError(t, p.Use(Before, OpUpdate, "", func(_ context.Context, _ *OpContext) (*OpContext, error) {
		return nil, boom
	}))
	require.NoError(t, p.Use(Before, OpUpdate, "", record(&log, "later")))

	_, err := p.Execute(context.Background(), Before, NewContext("documents", OpUpdate, nil, nil))
	require.ErrorIs(t, err, boom)
	require.Empty(t, log)
}

func TestExecuteReplacementContext(t *testing.T) {
	p := New()
	require.NoError(t, p.Use(Before, OpGet, "", func(_ context.Context, octx *OpContext) (*OpContext, error) {
		replacement := *octx
		replacement.Params = map[string]any{"rewritten": true}
		return &replacement, nil
	}))

	octx, err := p.Execute(context.Background(), Before, NewContext("documents", OpGet, nil, map[string]any{"id": "d1"}))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"rewritten": true}, octx.Params)
}

func TestNewContextSeeding(t *testing.T) {
	u := &auth.User{ID: "u1"}
	octx := NewContext("documents", OpCreate, u, nil)
	require.Equal(t, "documents", octx.Entity)
	require.Equal(t, OpCreate, octx.Operation)
	require.Same(t, u, octx.User)
	require.False(t, octx.Timestamp.IsZero())
	require.NotNil(t, octx.Params)
	require.False(t, octx.Abort)
	require.False(t, octx.Skip)
	require.False(t, octx.SoftDelete)
}

func TestTimestampHook(t *testing.T) {
	hook := TimestampHook()

	octx := NewContext("documents", OpCreate, nil, nil)
	octx, err := hook(context.Background(), octx)
	require.NoError(t, err)
	require.Equal(t, octx.Timestamp, octx.Data["createdAt"])
	require.Equal(t, octx.Timestamp, octx.Data["updatedAt"])

	// Updates only touch updatedAt.
	octx = NewContext("documents", OpUpdate, nil, nil)
	octx, err = hook(context.Background(), octx)
	require.NoError(t, err)
	require.NotContains(t, octx.Data, "createdAt")
	require.Equal(t, octx.Timestamp, octx.Data["updatedAt"])

	// Reads pass through untouched.
	octx = NewContext("documents", OpGet, nil, nil)
	octx, err = hook(context.Background(), octx)
	require.NoError(t, err)
	require.Nil(t, octx.Data)
}

func TestSoftDeleteHook(t *testing.T) {
	hook := SoftDeleteHook()

	octx := NewContext("documents", OpDelete, nil, nil)
	octx, err := hook(context.Background(), octx)
	require.NoError(t, err)
	require.True(t, octx.SoftDelete)
	require.True(t, octx.Skip)
	require.Equal(t, octx.Timestamp, octx.Data["deletedAt"])

	octx = NewContext("documents", OpUpdate, nil, nil)
	octx, err = hook(context.Background(), octx)
	require.NoError(t, err)
	require.False(t, octx.SoftDelete)
}
