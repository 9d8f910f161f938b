// Package transport defines the publish/subscribe abstraction the subscriber
// is built on, plus the process-wide registry of shared transport contexts.
//
// A Backend opens Sessions (one per context id). A Session creates Nodes, a
// Node creates Subscriptions. Every handle is closed by its owner; closing a
// Session does not implicitly close the Nodes created from it.
//
// Two backends ship with the module: transport/natsbus (NATS core and
// JetStream) and transport/loopback (in-process, used by tests and demos).
package transport

import (
	"context"

	"github.com/arloliu/robotcmd/types"
)

// Backend opens transport sessions.
type Backend interface {
	// Name returns a short backend identifier for logs ("nats", "loopback").
	Name() string

	// Open creates a new session for the given context id.
	Open(ctx context.Context, contextID uint64) (Session, error)
}

// Session is an initialized transport context. It may be shared by many nodes.
type Session interface {
	// NewNode creates a node named name inside namespace.
	//
	// An empty namespace means the root namespace.
	NewNode(ctx context.Context, name string, namespace string) (Node, error)

	// Close finalizes the session.
	Close(ctx context.Context) error
}

// Node is a named participant in the graph that owns subscriptions.
type Node interface {
	// FullyQualifiedName returns the node's resolved name, e.g. "/robot1/robot_cmd_subscriber".
	FullyQualifiedName() string

	// Namespace returns the node's resolved namespace, e.g. "/robot1" or "/".
	Namespace() string

	// Subscribe creates a subscription on topic with the given policy.
	//
	// Relative topic names resolve under the node's namespace.
	Subscribe(ctx context.Context, topic string, qos types.QoSPolicy) (Subscription, error)

	// Close finalizes the node.
	Close(ctx context.Context) error
}

// Subscription is a non-blocking message source.
type Subscription interface {
	// Topic returns the resolved topic name.
	Topic() string

	// TryTake returns the oldest queued payload without blocking.
	//
	// Returns types.ErrNoData when nothing is queued; any other error is a
	// transport failure.
	TryTake() ([]byte, error)

	// Close finalizes the subscription.
	Close() error
}
