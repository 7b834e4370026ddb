package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerMemoryBackend(t *testing.T) {
	m := NewManager(ManagerConfig{Backend: "memory"})
	defer m.Destroy()

	st := m.Status()
	require.Equal(t, BackendMemory, st.Configured)
	require.Equal(t, BackendMemory, st.Active)
	require.False(t, st.UsingFallback)
	require.True(t, m.IsHealthy(context.Background()))
}

func TestManagerUnrecognizedBackendFallsBack(t *testing.T) {
	m := NewManager(ManagerConfig{Backend: "memcached"})
	defer m.Destroy()

	st := m.Status()
	require.Equal(t, "memcached", st.Configured)
	require.Equal(t, BackendMemory, st.Active)
	require.True(t, st.UsingFallback)

	// The fallback store still honors the full contract.
	ctx := context.Background()
	require.NoError(t, m.Create(ctx, "s1", Data{"id": "u1"}))
	data, ok, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "u1", data["id"])
}

func TestManagerEmptyBackendIsMemoryNotFallback(t *testing.T) {
	m := NewManager(ManagerConfig{})
	defer m.Destroy()

	st := m.Status()
	require.Equal(t, BackendMemory, st.Configured)
	require.False(t, st.UsingFallback)
}
