package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/robotcmd"
)

// FileConfig is the subscriber configuration file.
type FileConfig struct {
	// Runtime configures the controller and its transport.
	Runtime robotcmd.Config `yaml:"runtime"`

	// Subscription holds the per-tick inputs. They are re-read on SIGHUP.
	Subscription robotcmd.SubscriptionConfig `yaml:"subscription"`

	// TickInterval is the poll period.
	TickInterval time.Duration `yaml:"tickInterval"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Format string `yaml:"format"` // "text" or "json"
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr"`
}

const defaultTickInterval = 20 * time.Millisecond

// LoadConfig loads configuration from a YAML file.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *FileConfig: Loaded configuration with defaults applied
//   - error: Error if file cannot be read, parsed or validated
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parseConfig(data)
}

func parseConfig(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	robotcmd.SetDefaults(&cfg.Runtime)

	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Subscription.QoSProfile == "" {
		cfg.Subscription.QoSProfile = "default"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func validateConfig(cfg *FileConfig) error {
	var errs []error

	if err := cfg.Runtime.Validate(); err != nil {
		errs = append(errs, err)
	}
	// A reload with invalid inputs is rejected before it reaches the controller.
	if err := cfg.Subscription.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
