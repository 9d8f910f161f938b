// Package configwatch decides when a live subscription must be rebuilt.
package configwatch

import "github.com/arloliu/robotcmd/types"

// NeedsRecreate reports whether the subscription built from last must be torn
// down and rebuilt to serve current.
//
// Returns true only when alreadyBound is true and at least one field differs.
// Initial creation is not a recreate, so an unbound caller always gets false.
func NeedsRecreate(current, last types.SubscriptionConfig, alreadyBound bool) bool {
	if !alreadyBound {
		return false
	}

	return !current.Equal(last)
}

// Diff returns the names of the fields that differ between current and last,
// in declaration order.
func Diff(current, last types.SubscriptionConfig) []string {
	var fields []string
	if current.Topic != last.Topic {
		fields = append(fields, "topic")
	}
	if current.Namespace != last.Namespace {
		fields = append(fields, "namespace")
	}
	if current.QoSProfile != last.QoSProfile {
		fields = append(fields, "qos_profile")
	}
	if current.QueueDepth != last.QueueDepth {
		fields = append(fields, "queue_depth")
	}
	if current.ContextID != last.ContextID {
		fields = append(fields, "context_id")
	}

	return fields
}
