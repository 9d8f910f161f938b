package transport_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/transport/loopback"
	"github.com/arloliu/robotcmd/types"
)

func TestNewRegistry_RequiresBackend(t *testing.T) {
	_, err := transport.NewRegistry(nil)
	require.ErrorIs(t, err, transport.ErrBackendRequired)
}

func TestRegistry_SharesSessionPerContext(t *testing.T) {
	bus := loopback.NewBus()
	reg, err := transport.NewRegistry(bus)
	require.NoError(t, err)
	require.Equal(t, bus, reg.Backend())

	h1, err := reg.Acquire(t.Context(), 0)
	require.NoError(t, err)
	h2, err := reg.Acquire(t.Context(), 0)
	require.NoError(t, err)
	h3, err := reg.Acquire(t.Context(), 1)
	require.NoError(t, err)

	require.Same(t, h1.Session(), h2.Session())
	require.NotSame(t, h1.Session(), h3.Session())
	require.Equal(t, uint64(1), h3.ID())
	require.Equal(t, 2, reg.Open())
	require.Equal(t, 2, reg.Refs(0))
	require.Equal(t, 2, bus.OpenSessions())

	require.NoError(t, h1.Release(t.Context()))
	require.Equal(t, 1, reg.Refs(0))
	require.Equal(t, 2, bus.OpenSessions())

	// second release of the same handle is a no-op
	require.NoError(t, h1.Release(t.Context()))
	require.Equal(t, 1, reg.Refs(0))

	require.NoError(t, h2.Release(t.Context()))
	require.Zero(t, reg.Refs(0))
	require.Equal(t, 1, bus.OpenSessions())

	require.NoError(t, h3.Release(t.Context()))
	require.Zero(t, reg.Open())
	require.Zero(t, bus.OpenSessions())
}

func TestRegistry_ReopenAfterLastRelease(t *testing.T) {
	bus := loopback.NewBus()
	reg, err := transport.NewRegistry(bus)
	require.NoError(t, err)

	h, err := reg.Acquire(t.Context(), 0)
	require.NoError(t, err)
	require.NoError(t, h.Release(t.Context()))

	h, err = reg.Acquire(t.Context(), 0)
	require.NoError(t, err)
	require.Equal(t, 2, bus.SessionsOpened())
	require.NoError(t, h.Release(t.Context()))
}

func TestRegistry_OpenFailure(t *testing.T) {
	bus := loopback.NewBus()
	boom := errors.New("boom")
	bus.SetFault(loopback.OpOpen, boom)

	reg, err := transport.NewRegistry(bus)
	require.NoError(t, err)

	_, err = reg.Acquire(t.Context(), 0)
	require.ErrorIs(t, err, boom)
	require.Zero(t, reg.Open())
}

func TestRegistry_CloseFailureWrapsTeardown(t *testing.T) {
	bus := loopback.NewBus()
	bus.SetFault(loopback.OpCloseSession, errors.New("boom"))

	reg, err := transport.NewRegistry(bus)
	require.NoError(t, err)

	h, err := reg.Acquire(t.Context(), 0)
	require.NoError(t, err)

	err = h.Release(t.Context())
	require.ErrorIs(t, err, types.ErrTeardown)
	require.Zero(t, reg.Open())
}

func TestRegistry_ConcurrentAcquire(t *testing.T) {
	bus := loopback.NewBus()
	reg, err := transport.NewRegistry(bus)
	require.NoError(t, err)

	const workers = 16
	handles := make([]*transport.ContextHandle, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			h, err := reg.Acquire(t.Context(), 3)
			if err == nil {
				handles[idx] = h
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, bus.SessionsOpened())
	require.Equal(t, workers, reg.Refs(3))

	for _, h := range handles {
		require.NotNil(t, h)
		require.NoError(t, h.Release(t.Context()))
	}
	require.Zero(t, bus.OpenSessions())
}
