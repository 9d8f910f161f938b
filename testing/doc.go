// Package testing provides test utilities for the robotcmd module.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for integration testing. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - CreateStream: Stream capturing robot command subjects for reliable subscriptions
//   - NewTestLogger: types.Logger writing to t.Logf
//
// Example usage:
//
//	import (
//	    "testing"
//	    robotcmdtest "github.com/arloliu/robotcmd/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := robotcmdtest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
