package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/robotcmd/internal/logger"
	"github.com/arloliu/robotcmd/internal/metrics"
	"github.com/arloliu/robotcmd/types"
)

// ErrBackendRequired is returned by NewRegistry when backend is nil.
var ErrBackendRequired = errors.New("transport backend is required")

// Registry shares transport sessions between subscribers.
//
// Sessions are keyed by context id and reference counted: the first Acquire for
// an id opens a session, later Acquires reuse it, and the session is closed when
// the last ContextHandle is released. Registry is safe for concurrent use.
type Registry struct {
	backend Backend
	logger  types.Logger
	metrics types.RegistryMetrics

	mu      sync.Mutex
	entries map[uint64]*registryEntry
}

type registryEntry struct {
	session Session
	refs    int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(l types.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRegistryMetrics sets the registry metrics sink.
func WithRegistryMetrics(m types.RegistryMetrics) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewRegistry creates a registry that opens sessions from backend.
//
// Parameters:
//   - backend: Transport backend used to open sessions
//   - opts: Optional logger and metrics
//
// Returns:
//   - *Registry: New registry with no open sessions
//   - error: ErrBackendRequired if backend is nil
func NewRegistry(backend Backend, opts ...RegistryOption) (*Registry, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}

	r := &Registry{
		backend: backend,
		logger:  logger.NewNop(),
		metrics: metrics.NewNop(),
		entries: make(map[uint64]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Backend returns the backend sessions are opened from.
func (r *Registry) Backend() Backend {
	return r.backend
}

// Acquire returns a handle on the session for contextID, opening it if needed.
//
// The session is opened while the registry lock is held so concurrent first
// acquirers never open two sessions for the same id.
func (r *Registry) Acquire(ctx context.Context, contextID uint64) (*ContextHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[contextID]
	if !ok {
		session, err := r.backend.Open(ctx, contextID)
		r.metrics.RecordContextOpen(err == nil)
		if err != nil {
			return nil, fmt.Errorf("open %s context %d: %w", r.backend.Name(), contextID, err)
		}

		entry = &registryEntry{session: session}
		r.entries[contextID] = entry
		r.metrics.SetContextsOpen(len(r.entries))
		r.logger.Info("transport context opened", "backend", r.backend.Name(), "context_id", contextID)
	}

	entry.refs++

	return &ContextHandle{registry: r, id: contextID, session: entry.session}, nil
}

// Open returns the number of open sessions.
func (r *Registry) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Refs returns the reference count for contextID, or 0 if it is not open.
func (r *Registry) Refs(contextID uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[contextID]; ok {
		return entry.refs
	}

	return 0
}

func (r *Registry) release(ctx context.Context, contextID uint64) error {
	r.mu.Lock()
	entry, ok := r.entries[contextID]
	if !ok {
		r.mu.Unlock()
		return nil
	}

	entry.refs--
	if entry.refs > 0 {
		r.mu.Unlock()
		return nil
	}

	delete(r.entries, contextID)
	r.metrics.SetContextsOpen(len(r.entries))
	r.mu.Unlock()

	r.metrics.RecordContextClose()
	if err := entry.session.Close(ctx); err != nil {
		r.logger.Warn("transport context close failed", "context_id", contextID, "error", err)
		return fmt.Errorf("%w: close context %d: %w", types.ErrTeardown, contextID, err)
	}

	r.logger.Info("transport context closed", "backend", r.backend.Name(), "context_id", contextID)

	return nil
}

// ContextHandle is one holder's reference to a shared session.
type ContextHandle struct {
	registry *Registry
	id       uint64
	session  Session
	once     sync.Once
}

// ID returns the context id the handle was acquired for.
func (h *ContextHandle) ID() uint64 {
	return h.id
}

// Session returns the shared session.
func (h *ContextHandle) Session() Session {
	return h.session
}

// Release drops this holder's reference. Only the first call has an effect.
//
// Returns an error wrapping types.ErrTeardown if this was the last reference
// and closing the session failed. The reference is dropped either way.
func (h *ContextHandle) Release(ctx context.Context) error {
	var err error
	h.once.Do(func() {
		err = h.registry.release(ctx, h.id)
	})

	return err
}
