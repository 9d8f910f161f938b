package robotcmd

import "github.com/arloliu/robotcmd/codec"

// Option configures a Controller with optional dependencies.
type Option func(*controllerOptions)

// controllerOptions holds optional Controller configuration.
type controllerOptions struct {
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	codec   codec.Codec
}

// WithHooks sets controller event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewController
//
// Example:
//
//	hooks := &robotcmd.Hooks{
//	    OnNewData: func(ctx context.Context, cmd robotcmd.RobotCommand) error {
//	        return arm.Apply(cmd.Positions)
//	    },
//	}
//	ctrl, err := robotcmd.NewController(&cfg, registry, robotcmd.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *controllerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewController
//
// Example:
//
//	metrics := robotcmd.NewPrometheusMetrics(prometheus.DefaultRegisterer, "")
//	ctrl, err := robotcmd.NewController(&cfg, registry, robotcmd.WithMetrics(metrics))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *controllerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (see internal/logging for a slog adapter)
//
// Returns:
//   - Option: Functional option for NewController
func WithLogger(logger Logger) Option {
	return func(o *controllerOptions) {
		o.logger = logger
	}
}

// WithCodec overrides the codec selected by Config.Codec.
//
// Parameters:
//   - c: Codec used to unmarshal received payloads
//
// Returns:
//   - Option: Functional option for NewController
func WithCodec(c codec.Codec) Option {
	return func(o *controllerOptions) {
		o.codec = c
	}
}
