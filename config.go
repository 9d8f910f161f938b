package robotcmd

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/arloliu/robotcmd/codec"
	"github.com/arloliu/robotcmd/internal/lifecycle"
	"github.com/arloliu/robotcmd/transport"
)

// Transport backend names.
const (
	BackendNATS     = "nats"
	BackendLoopback = "loopback"
)

// TransportConfig selects and configures the transport backend.
type TransportConfig struct {
	// Backend is "nats" or "loopback".
	Backend string `yaml:"backend"`

	// URL is the NATS server URL.
	URL string `yaml:"url"`

	// ConnectionName is reported to the NATS server; the context id is appended.
	ConnectionName string `yaml:"connectionName"`

	// ConnectTimeout bounds connecting and subscribe round trips.
	ConnectTimeout time.Duration `yaml:"connectTimeout"`

	// SubjectPrefix is prepended to every topic subject.
	SubjectPrefix string `yaml:"subjectPrefix"`

	// Stream names the JetStream stream capturing topic subjects. When set,
	// reliable profiles read through JetStream; otherwise everything uses core NATS.
	Stream string `yaml:"stream"`

	// GraphBucket is the KV bucket nodes announce themselves in. Empty disables it.
	GraphBucket string `yaml:"graphBucket"`

	// GraphTTL expires graph entries of nodes that vanished without cleanup.
	GraphTTL time.Duration `yaml:"graphTtl"`
}

// Config is the runtime configuration of a Controller.
//
// The per-poll subscription inputs (topic, namespace, QoS profile, queue size,
// context id) are not part of Config; they arrive with every Poll call.
type Config struct {
	// NodeName is the name of the node that owns the subscription.
	NodeName string `yaml:"nodeName"`

	// Codec is the wire encoding of robot commands ("cbor" or "json").
	Codec string `yaml:"codec"`

	// ReleaseTimeout bounds teardown in Reset and Release.
	ReleaseTimeout time.Duration `yaml:"releaseTimeout"`

	// Transport configures the backend.
	Transport TransportConfig `yaml:"transport"`
}

// DefaultConfig returns the default configuration.
//
// Returns:
//   - Config: Configuration with defaults applied
//
// Example:
//
//	cfg := robotcmd.DefaultConfig()
//	cfg.Transport.URL = "nats://robot-gw:4222"
//	ctrl, err := robotcmd.NewController(&cfg, registry)
func DefaultConfig() Config {
	return Config{
		NodeName:       lifecycle.DefaultNodeName,
		Codec:          codec.NameCBOR,
		ReleaseTimeout: 5 * time.Second,
		Transport: TransportConfig{
			Backend:        BackendNATS,
			URL:            "nats://127.0.0.1:4222",
			ConnectionName: "robotcmd",
			ConnectTimeout: 2 * time.Second,
			SubjectPrefix:  "robotcmd",
			GraphTTL:       30 * time.Second,
		},
	}
}

// SetDefaults fills zero-valued fields with their defaults.
//
// Stream and GraphBucket stay empty unless set: both features are opt-in.
//
// Parameters:
//   - cfg: Configuration to update in place
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.NodeName == "" {
		cfg.NodeName = defaults.NodeName
	}
	if cfg.Codec == "" {
		cfg.Codec = defaults.Codec
	}
	if cfg.ReleaseTimeout == 0 {
		cfg.ReleaseTimeout = defaults.ReleaseTimeout
	}
	if cfg.Transport.Backend == "" {
		cfg.Transport.Backend = defaults.Transport.Backend
	}
	if cfg.Transport.URL == "" {
		cfg.Transport.URL = defaults.Transport.URL
	}
	if cfg.Transport.ConnectionName == "" {
		cfg.Transport.ConnectionName = defaults.Transport.ConnectionName
	}
	if cfg.Transport.ConnectTimeout == 0 {
		cfg.Transport.ConnectTimeout = defaults.Transport.ConnectTimeout
	}
	if cfg.Transport.SubjectPrefix == "" {
		cfg.Transport.SubjectPrefix = defaults.Transport.SubjectPrefix
	}
	if cfg.Transport.GraphTTL == 0 {
		cfg.Transport.GraphTTL = defaults.Transport.GraphTTL
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - NodeName is a single valid name token
//   - Codec is a registered codec name
//   - Transport.Backend is "nats" or "loopback"
//   - ReleaseTimeout > 0 and Transport.ConnectTimeout > 0
//   - Transport.GraphTTL >= 0
//
// Returns:
//   - error: Wraps ErrInvalidConfig with every violated rule, nil if valid
func (cfg *Config) Validate() error {
	var errs []error

	if _, err := transport.NodeFQN("", cfg.NodeName); err != nil {
		errs = append(errs, fmt.Errorf("NodeName: %w", err))
	}

	if !slices.Contains(codec.Names(), cfg.Codec) {
		errs = append(errs, fmt.Errorf("Codec %q must be one of %v", cfg.Codec, codec.Names()))
	}

	switch cfg.Transport.Backend {
	case BackendNATS, BackendLoopback:
	default:
		errs = append(errs, fmt.Errorf("Transport.Backend %q must be %q or %q",
			cfg.Transport.Backend, BackendNATS, BackendLoopback))
	}

	if cfg.ReleaseTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ReleaseTimeout must be > 0, got %v", cfg.ReleaseTimeout))
	}

	if cfg.Transport.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("Transport.ConnectTimeout must be > 0, got %v", cfg.Transport.ConnectTimeout))
	}

	if cfg.Transport.GraphTTL < 0 {
		errs = append(errs, fmt.Errorf("Transport.GraphTTL must be >= 0, got %v", cfg.Transport.GraphTTL))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ValidateWithWarnings logs warnings for valid but unusual values.
//
// This is called after Validate() in NewController() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.Transport.Backend == BackendNATS && cfg.Transport.Stream == "" {
		logger.Warn(
			"no JetStream stream configured; reliable QoS profiles fall back to core NATS delivery",
			"subjectPrefix", cfg.Transport.SubjectPrefix,
		)
	}

	if cfg.Transport.Backend == BackendLoopback && cfg.Transport.GraphBucket != "" {
		logger.Warn(
			"graphBucket is ignored by the loopback backend",
			"graphBucket", cfg.Transport.GraphBucket,
		)
	}

	if cfg.Transport.GraphBucket != "" && cfg.Transport.GraphTTL > 0 && cfg.Transport.GraphTTL < 5*time.Second {
		logger.Warn(
			"GraphTTL is very short; live nodes may disappear from the graph",
			"graphTtl", cfg.Transport.GraphTTL,
			"recommended", "30s",
		)
	}

	if cfg.ReleaseTimeout < cfg.Transport.ConnectTimeout {
		logger.Warn(
			"ReleaseTimeout is shorter than ConnectTimeout; teardown may be cut off",
			"releaseTimeout", cfg.ReleaseTimeout,
			"connectTimeout", cfg.Transport.ConnectTimeout,
		)
	}
}

// TestConfig returns a configuration for tests: loopback transport and short timeouts.
//
// Returns:
//   - Config: Test configuration
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.Transport.Backend = BackendLoopback
	cfg.ReleaseTimeout = time.Second
	cfg.Transport.ConnectTimeout = 500 * time.Millisecond

	return cfg
}
