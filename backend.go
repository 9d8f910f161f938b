package robotcmd

import (
	"fmt"

	"github.com/arloliu/robotcmd/internal/logger"
	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/transport/loopback"
	"github.com/arloliu/robotcmd/transport/natsbus"
)

// NewBackend builds the transport backend selected by cfg.Backend.
//
// Parameters:
//   - cfg: Transport configuration (defaults are not applied here; see SetDefaults)
//   - log: Logger for the backend (no-op if nil)
//
// Returns:
//   - transport.Backend: The backend
//   - error: Wraps ErrInvalidConfig for an unknown backend name
//
// Example:
//
//	backend, err := robotcmd.NewBackend(cfg.Transport, logger)
//	registry, err := transport.NewRegistry(backend)
func NewBackend(cfg TransportConfig, log Logger) (transport.Backend, error) {
	if log == nil {
		log = logger.NewNop()
	}

	switch cfg.Backend {
	case BackendNATS:
		return natsbus.New(natsbus.Config{
			URL:            cfg.URL,
			ConnectionName: cfg.ConnectionName,
			ConnectTimeout: cfg.ConnectTimeout,
			SubjectPrefix:  cfg.SubjectPrefix,
			Stream:         cfg.Stream,
			GraphBucket:    cfg.GraphBucket,
			GraphTTL:       cfg.GraphTTL,
		}, log), nil
	case BackendLoopback:
		return loopback.NewBus(), nil
	default:
		return nil, fmt.Errorf("%w: unknown transport backend %q", ErrInvalidConfig, cfg.Backend)
	}
}

// NewRegistry builds the backend selected by cfg and wraps it in a context registry.
//
// One registry is meant to be shared by every Controller in the process so
// that controllers with the same context id share one transport session.
func NewRegistry(cfg TransportConfig, log Logger, metrics MetricsCollector) (*transport.Registry, error) {
	backend, err := NewBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	return transport.NewRegistry(backend,
		transport.WithRegistryLogger(log),
		transport.WithRegistryMetrics(metrics),
	)
}
