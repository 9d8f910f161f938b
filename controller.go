package robotcmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/robotcmd/codec"
	"github.com/arloliu/robotcmd/internal/configwatch"
	"github.com/arloliu/robotcmd/internal/decoder"
	"github.com/arloliu/robotcmd/internal/hooks"
	"github.com/arloliu/robotcmd/internal/lifecycle"
	"github.com/arloliu/robotcmd/internal/logger"
	"github.com/arloliu/robotcmd/internal/metrics"
	"github.com/arloliu/robotcmd/internal/natsutil"
	"github.com/arloliu/robotcmd/internal/qos"
	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

// Controller turns one host tick into one non-blocking poll of a robot command
// subscription.
//
// On every Poll it compares the requested SubscriptionConfig with the one the
// live subscription was built from, rebuilds the subscription when they
// differ, takes at most one message and decodes it into Outputs.
//
// Controller is driven by a single-threaded host scheduler: it takes no locks,
// starts no goroutines and must not be called concurrently. Controllers on
// different goroutines may share one transport.Registry.
type Controller struct {
	cfg       Config
	codec     codec.Codec
	lifecycle *lifecycle.Manager
	hooks     Hooks
	metrics   MetricsCollector
	logger    Logger

	state       State
	outputs     Outputs
	lastApplied SubscriptionConfig
	applied     bool

	warnedProfiles map[string]struct{}
}

// NewController creates an idle controller.
//
// No transport resources are created until the first Poll.
//
// Parameters:
//   - cfg: Runtime configuration (defaults are applied in place)
//   - registry: Shared context registry, see NewRegistry
//   - opts: Optional logger, metrics, hooks and codec
//
// Returns:
//   - *Controller: Idle controller
//   - error: ErrInvalidConfig, ErrRegistryRequired or ErrCodecRequired
//
// Example:
//
//	cfg := robotcmd.DefaultConfig()
//	registry, err := robotcmd.NewRegistry(cfg.Transport, logger, nil)
//	ctrl, err := robotcmd.NewController(&cfg, registry, robotcmd.WithLogger(logger))
//	defer ctrl.Release(context.Background())
func NewController(cfg *Config, registry *transport.Registry, opts ...Option) (*Controller, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &controllerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	codecInstance := options.codec
	if codecInstance == nil {
		c, err := codec.ByName(cfg.Codec)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCodecRequired, err)
		}
		codecInstance = c
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	// Validate with warnings after logger is available
	cfg.ValidateWithWarnings(loggerInstance)

	hooksInstance := hooks.NewNop()
	if options.hooks != nil {
		hooksInstance = hooks.Fill(*options.hooks)
	}

	c := &Controller{
		cfg:     *cfg,
		codec:   codecInstance,
		hooks:   hooksInstance,
		metrics: metricsCollector,
		logger:  loggerInstance,
		lifecycle: lifecycle.NewManager(registry,
			lifecycle.WithNodeName(cfg.NodeName),
			lifecycle.WithLogger(loggerInstance),
			lifecycle.WithMetrics(metricsCollector),
		),
		state:          StateIdle,
		outputs:        types.ZeroOutputs(),
		warnedProfiles: make(map[string]struct{}),
	}

	return c, nil
}

// Poll runs one host tick.
//
// Steps:
//  1. Rebuild the subscription when in differs from the applied configuration
//  2. Create the node and subscription if none is live
//  3. Take at most one message without blocking and decode it
//
// MessageReceived and ExecOut are true only for a tick that took and decoded a
// message. On every other tick the previously decoded values are retained.
//
// Parameters:
//   - ctx: Context for transport calls and hooks
//   - in: Subscription inputs for this tick
//
// Returns:
//   - Outputs: Copy of the outputs after this tick
//   - error: Wraps ErrConfiguration when the subscription could not be created
//     (retried on the next Poll), ErrReleased after Release, nil otherwise
func (c *Controller) Poll(ctx context.Context, in SubscriptionConfig) (Outputs, error) {
	c.outputs.MessageReceived = false
	c.outputs.ExecOut = false

	if c.state == StateReleased {
		return c.Outputs(), ErrReleased
	}

	if configwatch.NeedsRecreate(in, c.lastApplied, c.lifecycle.Bound()) {
		c.recreate(ctx, in)
	}

	if !c.lifecycle.Bound() {
		if err := c.bind(ctx, in); err != nil {
			return c.Outputs(), err
		}
	}

	result, data, err := c.lifecycle.Poll()
	switch result {
	case types.PollReceived:
		c.receive(ctx, data)
	case types.PollNoneAvailable:
		c.metrics.RecordPoll(types.PollNoneAvailable, "")
	case types.PollError:
		c.pollFailed(err)
	}

	return c.Outputs(), nil
}

func (c *Controller) recreate(ctx context.Context, in SubscriptionConfig) {
	from := c.lastApplied
	fields := configwatch.Diff(in, from)

	c.logger.Info("subscription configuration changed, recreating",
		append([]any{"changed", fields, "node", c.lifecycle.Node(), "previous_topic", c.lifecycle.Topic()},
			in.LogFields()...)...)
	c.metrics.RecordRecreate(fields)

	if err := c.hooks.OnRecreate(ctx, from, in); err != nil {
		c.logger.Warn("recreate hook error", "error", err)
	}

	c.unbind(ctx)
	c.transitionState(ctx, StateIdle)
}

func (c *Controller) bind(ctx context.Context, in SubscriptionConfig) error {
	if in.QoSProfile != "" && !qos.Known(in.QoSProfile) {
		if _, seen := c.warnedProfiles[in.QoSProfile]; !seen {
			c.warnedProfiles[in.QoSProfile] = struct{}{}
			c.logger.Warn("unknown QoS profile, using default",
				"qos", in.QoSProfile,
				"known", qos.Profiles(),
			)
		}
	}

	depth := uint(max(in.QueueDepth, 0)) //nolint:gosec // clamped to non-negative above
	policy := qos.Select(in.QoSProfile, depth)

	if err := c.lifecycle.Bind(ctx, in, policy); err != nil {
		c.logger.Error("failed to create subscription",
			append(in.LogFields(), "node", c.cfg.NodeName, "error", err)...)

		return err
	}

	c.lastApplied = in
	c.applied = true

	c.logger.Info("subscription created",
		"topic", c.lifecycle.Topic(),
		"node", c.lifecycle.Node(),
		"namespace", in.Namespace,
		"queue_size", in.QueueDepth,
		"qos", in.QoSProfile,
		"policy", policy.String(),
		"context_id", in.ContextID,
	)
	c.transitionState(ctx, StateActive)

	return nil
}

func (c *Controller) receive(ctx context.Context, data []byte) {
	var raw types.RobotCmd
	if err := c.codec.Unmarshal(data, &raw); err != nil {
		c.metrics.RecordPoll(types.PollError, natsutil.ReasonCodec)
		c.logger.Warn("failed to decode robot command",
			"topic", c.lifecycle.Topic(),
			"codec", c.codec.Name(),
			"bytes", len(data),
			"error", err,
		)

		return
	}

	cmd := decoder.Decode(&raw)
	c.outputs.RobotCommand = cmd
	c.outputs.MessageReceived = true
	c.outputs.ExecOut = true

	c.metrics.RecordPoll(types.PollReceived, "")
	c.metrics.RecordJointCount(cmd.NumJoints())

	if err := c.hooks.OnNewData(ctx, cmd.Clone()); err != nil {
		c.logger.Warn("new data hook error", "topic", c.lifecycle.Topic(), "error", err)
	}
}

func (c *Controller) pollFailed(err error) {
	reason := natsutil.PollErrorReason(err)
	if errors.Is(err, ErrNotBound) {
		reason = natsutil.ReasonNotBound
	}
	c.metrics.RecordPoll(types.PollError, reason)

	fields := []any{"topic", c.lifecycle.Topic(), "reason", reason, "error", err}
	if reason == natsutil.ReasonConnectivity {
		c.logger.Warn("transport unavailable while polling", fields...)
		return
	}
	c.logger.Error("failed to take message", fields...)
}

// Reset clears the outputs and releases the subscription.
//
// The shared context is kept. The next Poll recreates the subscription from
// its inputs. Reset after Release is a no-op.
func (c *Controller) Reset(ctx context.Context) {
	if c.state == StateReleased {
		return
	}

	c.outputs = types.ZeroOutputs()
	c.unbind(ctx)
	c.transitionState(ctx, StateIdle)

	c.logger.Info("controller reset", "node", c.cfg.NodeName)
}

func (c *Controller) unbind(ctx context.Context) {
	tctx, cancel := context.WithTimeout(ctx, c.cfg.ReleaseTimeout)
	defer cancel()

	// Failures are logged and counted by the lifecycle manager.
	_ = c.lifecycle.Unbind(tctx)
}

// Release tears down the subscription, node and shared context handle.
//
// Release is terminal and idempotent: later calls return nil, Poll returns
// ErrReleased and Reset does nothing. Teardown is best effort and bounded by
// Config.ReleaseTimeout.
//
// Returns:
//   - error: Wraps ErrTeardown if any finalize step failed; the controller is released regardless
func (c *Controller) Release(ctx context.Context) error {
	if c.state == StateReleased {
		return nil
	}

	c.outputs.MessageReceived = false
	c.outputs.ExecOut = false

	tctx, cancel := context.WithTimeout(ctx, c.cfg.ReleaseTimeout)
	defer cancel()

	err := c.lifecycle.Release(tctx)
	c.transitionState(ctx, StateReleased)

	if err != nil {
		c.logger.Warn("controller released with teardown errors", "node", c.cfg.NodeName, "error", err)
		return err
	}

	c.logger.Info("controller released", "node", c.cfg.NodeName)

	return nil
}

func (c *Controller) transitionState(ctx context.Context, to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to

	c.logger.Info("state transition",
		"from", from.String(),
		"to", to.String(),
		"node", c.cfg.NodeName,
	)

	if err := c.hooks.OnStateChanged(ctx, from, to); err != nil {
		c.logger.Warn("state change hook error", "from", from, "to", to, "error", err)
	}
}

// Outputs returns a copy of the current outputs.
func (c *Controller) Outputs() Outputs {
	return c.outputs.Clone()
}

// State returns the controller state.
//
// StateActive always means a subscription is live. A recreate drops back to
// StateIdle before rebuilding, so a failed rebind leaves the controller Idle.
func (c *Controller) State() State {
	return c.state
}

// Bound reports whether a subscription is live.
func (c *Controller) Bound() bool {
	return c.lifecycle.Bound()
}

// Node returns the fully qualified node name, or "" when no subscription is live.
func (c *Controller) Node() string {
	return c.lifecycle.Node()
}

// Topic returns the resolved topic name, or "" when no subscription is live.
func (c *Controller) Topic() string {
	return c.lifecycle.Topic()
}

// LastApplied returns the configuration the current or most recent
// subscription was built from. The bool is false before the first successful bind.
func (c *Controller) LastApplied() (SubscriptionConfig, bool) {
	return c.lastApplied, c.applied
}

// Config returns the runtime configuration with defaults applied.
func (c *Controller) Config() Config {
	return c.cfg
}
