// Package lifecycle owns the transport handles behind one subscriber: the
// shared context handle, the node and the subscription.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/robotcmd/internal/logger"
	"github.com/arloliu/robotcmd/internal/metrics"
	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

// DefaultNodeName is the node name used when none is configured.
const DefaultNodeName = "robot_cmd_subscriber"

// Manager creates, polls and finalizes a single subscription.
//
// State machine: Unbound -> Bound -> Unbound -> ... -> Released. A failed Bind
// moves to Error, which behaves like Unbound. Manager is not safe for
// concurrent use.
type Manager struct {
	registry *transport.Registry
	nodeName string
	logger   types.Logger
	metrics  types.LifecycleMetrics

	handle *transport.ContextHandle
	res    *resource
	state  types.ResourceState
}

// Option configures a Manager.
type Option func(*Manager)

// WithNodeName sets the node name.
func WithNodeName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.nodeName = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(mc types.LifecycleMetrics) Option {
	return func(m *Manager) {
		if mc != nil {
			m.metrics = mc
		}
	}
}

// NewManager creates an unbound manager that acquires contexts from registry.
func NewManager(registry *transport.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		nodeName: DefaultNodeName,
		logger:   logger.NewNop(),
		metrics:  metrics.NewNop(),
		state:    types.ResourceUnbound,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Bind creates the node and subscription described by cfg.
//
// The context handle for cfg.ContextID is acquired on first use and kept across
// rebinds; a different ContextID releases the old handle and acquires a new
// one. A live subscription is torn down first.
//
// Parameters:
//   - ctx: Context for transport calls
//   - cfg: Subscription inputs
//   - qos: Resolved policy
//
// Returns:
//   - error: Wraps types.ErrConfiguration on any creation failure, types.ErrReleased after Release
func (m *Manager) Bind(ctx context.Context, cfg types.SubscriptionConfig, qos types.QoSPolicy) error {
	if m.state == types.ResourceReleased {
		return types.ErrReleased
	}

	if m.res != nil {
		_ = m.Unbind(ctx)
	}

	if err := cfg.Validate(); err != nil {
		m.state = types.ResourceError
		return err
	}

	if err := m.ensureContext(ctx, cfg.ContextID); err != nil {
		m.state = types.ResourceError
		return fmt.Errorf("%w: %w", types.ErrConfiguration, err)
	}

	start := time.Now()
	res, err := newResource(ctx, m.handle.Session(), m.nodeName, cfg, qos)
	m.metrics.RecordBind(err == nil, time.Since(start).Seconds())
	if err != nil {
		m.state = types.ResourceError
		return fmt.Errorf("%w: %w", types.ErrConfiguration, err)
	}

	m.res = res
	m.state = types.ResourceBound
	m.metrics.SetBound(true)

	return nil
}

func (m *Manager) ensureContext(ctx context.Context, contextID uint64) error {
	if m.handle != nil && m.handle.ID() == contextID {
		return nil
	}

	if m.handle != nil {
		_ = m.releaseContext(ctx)
	}

	handle, err := m.registry.Acquire(ctx, contextID)
	if err != nil {
		return err
	}
	m.handle = handle

	return nil
}

func (m *Manager) releaseContext(ctx context.Context) error {
	old := m.handle
	m.handle = nil

	if err := old.Release(ctx); err != nil {
		m.metrics.RecordTeardownFailure(StageContext)
		m.logger.Warn("failed to finalize context", "context_id", old.ID(), "error", err)

		return err
	}

	return nil
}

// Unbind finalizes the subscription and then the node, best effort.
//
// Every step runs even if an earlier one fails. The context handle is kept.
// The returned error wraps types.ErrTeardown and is informational only: the
// manager is Unbound afterwards regardless.
func (m *Manager) Unbind(ctx context.Context) error {
	if m.res == nil {
		if m.state != types.ResourceReleased {
			m.state = types.ResourceUnbound
		}

		return nil
	}

	res := m.res
	m.res = nil
	if m.state != types.ResourceReleased {
		m.state = types.ResourceUnbound
	}
	m.metrics.SetBound(false)

	failures := res.close(ctx)
	if len(failures) == 0 {
		return nil
	}

	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		m.metrics.RecordTeardownFailure(f.stage)
		m.logger.Warn("failed to finalize "+f.stage,
			"topic", res.sub.Topic(),
			"node", res.node.FullyQualifiedName(),
			"error", f.err)
		errs = append(errs, fmt.Errorf("%s: %w", f.stage, f.err))
	}

	return fmt.Errorf("%w: %w", types.ErrTeardown, errors.Join(errs...))
}

// Release unbinds and releases the context handle. It is terminal and idempotent.
func (m *Manager) Release(ctx context.Context) error {
	if m.state == types.ResourceReleased {
		return nil
	}

	err := m.Unbind(ctx)
	m.state = types.ResourceReleased

	if m.handle != nil {
		if cerr := m.releaseContext(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}

	return err
}

// Poll takes at most one message without blocking.
//
// Returns:
//   - types.PollResult: Outcome
//   - []byte: Payload for PollReceived, nil otherwise
//   - error: Cause for PollError (types.ErrNotBound when unbound), nil otherwise
func (m *Manager) Poll() (types.PollResult, []byte, error) {
	if m.res == nil {
		return types.PollError, nil, types.ErrNotBound
	}

	data, err := m.res.sub.TryTake()
	switch {
	case err == nil:
		return types.PollReceived, data, nil
	case errors.Is(err, types.ErrNoData):
		return types.PollNoneAvailable, nil, nil
	default:
		return types.PollError, nil, err
	}
}

// State returns the resource state.
func (m *Manager) State() types.ResourceState {
	return m.state
}

// Bound reports whether a subscription is live.
func (m *Manager) Bound() bool {
	return m.res != nil
}

// NodeName returns the configured node name.
func (m *Manager) NodeName() string {
	return m.nodeName
}

// Node returns the fully qualified node name, or "" when unbound.
func (m *Manager) Node() string {
	if m.res == nil {
		return ""
	}

	return m.res.node.FullyQualifiedName()
}

// Topic returns the resolved topic name, or "" when unbound.
func (m *Manager) Topic() string {
	if m.res == nil {
		return ""
	}

	return m.res.sub.Topic()
}

// ContextID returns the id of the held context handle.
func (m *Manager) ContextID() (uint64, bool) {
	if m.handle == nil {
		return 0, false
	}

	return m.handle.ID(), true
}
