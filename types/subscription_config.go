package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// SubscriptionConfig is the subscription request the host supplies on every poll.
//
// It is an immutable value snapshot: the controller copies it once per poll and
// compares it field by field against the last applied snapshot.
type SubscriptionConfig struct {
	// Topic is the topic name, relative to Namespace unless it starts with "/".
	Topic string `yaml:"topic" json:"topic"`

	// Namespace scopes the node. Empty means the root namespace.
	Namespace string `yaml:"namespace" json:"namespace"`

	// QoSProfile names a QoS profile ("sensor_data", "parameter_events",
	// "system_default", "default"). Unknown names fall back to "default".
	QoSProfile string `yaml:"qosProfile" json:"qosProfile"`

	// QueueDepth is the subscription history depth. Must be >= 0.
	QueueDepth int `yaml:"queueSize" json:"queueSize"`

	// ContextID selects which shared transport context to use. Opaque comparison key.
	ContextID uint64 `yaml:"context" json:"context"`
}

// Equal reports whether every field of c equals the corresponding field of other.
func (c SubscriptionConfig) Equal(other SubscriptionConfig) bool {
	return c.Topic == other.Topic &&
		c.Namespace == other.Namespace &&
		c.QoSProfile == other.QoSProfile &&
		c.QueueDepth == other.QueueDepth &&
		c.ContextID == other.ContextID
}

// Validate checks the invariants a bind relies on.
//
// Returns:
//   - error: wraps ErrConfiguration when the topic is blank or QueueDepth is negative
func (c SubscriptionConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Topic) == "" {
		errs = append(errs, errors.New("topic is required"))
	}
	if c.QueueDepth < 0 {
		errs = append(errs, fmt.Errorf("queue depth must be >= 0, got %d", c.QueueDepth))
	}
	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
}

// Fingerprint returns a stable 64-bit hash of all fields.
//
// Used as a compact log and metrics label; equality checks use Equal.
func (c SubscriptionConfig) Fingerprint() uint64 {
	buf := make([]byte, 0, len(c.Topic)+len(c.Namespace)+len(c.QoSProfile)+40)
	for _, s := range [...]string{c.Topic, c.Namespace, c.QoSProfile} {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s))) //nolint:gosec // lengths are far below 4GiB
		buf = append(buf, s...)
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(c.QueueDepth))) //nolint:gosec // sign is preserved by two's complement
	buf = binary.LittleEndian.AppendUint64(buf, c.ContextID)

	return xxh3.Hash(buf)
}

// LogFields returns the structured logging fields describing c.
func (c SubscriptionConfig) LogFields() []any {
	return []any{
		"topic", c.Topic,
		"namespace", c.Namespace,
		"qos", c.QoSProfile,
		"depth", c.QueueDepth,
		"context_id", c.ContextID,
		"config_fingerprint", fmt.Sprintf("%016x", c.Fingerprint()),
	}
}
