// Package natsbus implements the transport backend on NATS.
//
// A session is one NATS connection. Topics map to subjects below a configurable
// prefix. Best-effort subscriptions use core NATS with a pending-message limit
// equal to the queue depth. Reliable and transient-local subscriptions read
// through an ephemeral JetStream pull consumer when a stream is configured, replaying
// the last message per subject for transient-local. Nodes optionally announce
// themselves in a JetStream KV bucket so operators can list the live graph.
package natsbus

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/robotcmd/internal/kvutil"
	"github.com/arloliu/robotcmd/internal/logger"
	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

// BackendName is the name reported by Backend.Name.
const BackendName = "nats"

// Backend opens NATS sessions.
type Backend struct {
	cfg    Config
	logger types.Logger
}

// Compile-time assertion that Backend implements transport.Backend.
var _ transport.Backend = (*Backend)(nil)

// New creates a NATS backend. Missing config values take their defaults.
func New(cfg Config, log types.Logger) *Backend {
	if log == nil {
		log = logger.NewNop()
	}

	return &Backend{cfg: cfg.withDefaults(), logger: log}
}

// Name returns BackendName.
func (b *Backend) Name() string {
	return BackendName
}

// Config returns the effective configuration.
func (b *Backend) Config() Config {
	return b.cfg
}

// Open connects to the server and prepares JetStream.
//
// Parameters:
//   - ctx: Context for the graph bucket setup
//   - contextID: Reported in the connection name and node graph
//
// Returns:
//   - transport.Session: Connected session
//   - error: Connection, JetStream or graph bucket failure
func (b *Backend) Open(ctx context.Context, contextID uint64) (transport.Session, error) {
	nc, err := nats.Connect(b.cfg.URL,
		nats.Name(b.cfg.ConnectionName+"-"+strconv.FormatUint(contextID, 10)),
		nats.Timeout(b.cfg.ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", b.cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	s := &session{backend: b, id: contextID, nc: nc, js: js}

	if b.cfg.GraphBucket != "" {
		kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
			Bucket:      b.cfg.GraphBucket,
			Description: "robotcmd node graph",
			History:     1,
			TTL:         b.cfg.GraphTTL,
		}, 3)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("graph bucket %s: %w", b.cfg.GraphBucket, err)
		}
		s.graph = kv
	}

	return s, nil
}

type session struct {
	backend *Backend
	id      uint64
	nc      *nats.Conn
	js      jetstream.JetStream
	graph   jetstream.KeyValue
	closed  atomic.Bool
}

func (s *session) NewNode(ctx context.Context, name string, namespace string) (transport.Node, error) {
	if s.closed.Load() || s.nc.IsClosed() {
		return nil, types.ErrHandleClosed
	}

	ns, err := transport.ResolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	fqn, err := transport.NodeFQN(namespace, name)
	if err != nil {
		return nil, err
	}

	n := newNode(s, fqn, ns)
	if err := n.startHeartbeat(ctx); err != nil {
		return nil, err
	}

	return n, nil
}

func (s *session) Close(_ context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return types.ErrHandleClosed
	}

	s.nc.Close()

	return nil
}
