// Package types provides core type definitions and interfaces for the robotcmd library.
//
// This package contains shared types that are used across multiple packages in the
// library. By keeping these types in a separate package, we avoid import cycles
// between the root robotcmd package and its internal implementations.
//
// Key types:
//   - SubscriptionConfig: Per-poll subscription request from the host
//   - QoSPolicy: Concrete transport parameters resolved from a profile name
//   - RobotCmd: Raw wire record as produced by a codec
//   - RobotCommand: Decoded command with the equal-length arm invariant
//   - Outputs: What the host reads after each poll
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
