package natsbus

import (
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultURL            = "nats://127.0.0.1:4222"
	DefaultConnectionName = "robotcmd"
	DefaultConnectTimeout = 2 * time.Second
	DefaultSubjectPrefix  = "robotcmd"
	DefaultGraphTTL       = 30 * time.Second
)

// Config configures the NATS backend.
type Config struct {
	// URL is the NATS server URL.
	URL string

	// ConnectionName is reported to the server for each session.
	ConnectionName string

	// ConnectTimeout bounds connecting and the subscribe round trip.
	ConnectTimeout time.Duration

	// SubjectPrefix is prepended to every topic subject.
	SubjectPrefix string

	// Stream, when set, names the JetStream stream that captures topic
	// subjects. Reliable and transient-local subscriptions read from it.
	// When empty every subscription uses core NATS.
	Stream string

	// GraphBucket, when set, is the KV bucket nodes register themselves in.
	GraphBucket string

	// GraphTTL is the age after which stale graph entries expire.
	GraphTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.ConnectionName == "" {
		c.ConnectionName = DefaultConnectionName
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.GraphTTL <= 0 {
		c.GraphTTL = DefaultGraphTTL
	}

	return c
}

// Subject maps a resolved topic name to a NATS subject.
//
// Example:
//
//	Subject("robotcmd", "/robot1/robot_cmd") // "robotcmd.robot1.robot_cmd"
func Subject(prefix string, topic string) string {
	tokens := strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
	if prefix == "" {
		return tokens
	}

	return prefix + "." + tokens
}
