package natsbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/robotcmd/internal/heartbeat"
	"github.com/arloliu/robotcmd/internal/kvutil"
	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

// NodeInfo is the graph entry a node publishes to the graph bucket.
type NodeInfo struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Namespace     string             `json:"namespace"`
	ContextID     uint64             `json:"context_id"`
	StartedAt     time.Time          `json:"started_at"`
	Subscriptions []SubscriptionInfo `json:"subscriptions,omitempty"`
}

// SubscriptionInfo describes one subscription in a graph entry.
type SubscriptionInfo struct {
	Topic   string `json:"topic"`
	Subject string `json:"subject"`
	QoS     string `json:"qos"`
	Mode    string `json:"mode"`
}

// ListNodes returns the graph entries currently in kv.
func ListNodes(ctx context.Context, kv jetstream.KeyValue) ([]NodeInfo, error) {
	keys, err := kvutil.ListKeys(ctx, kv)
	if err != nil {
		return nil, err
	}

	nodes := make([]NodeInfo, 0, len(keys))
	for _, key := range keys {
		var info NodeInfo
		if err := kvutil.GetJSON(ctx, kv, key, &info); err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}

			return nil, err
		}
		nodes = append(nodes, info)
	}

	return nodes, nil
}

// minHeartbeatInterval bounds graph rewrites for very short TTLs.
const minHeartbeatInterval = 100 * time.Millisecond

type node struct {
	session *session
	closed  atomic.Bool
	hb      *heartbeat.Publisher

	mu   sync.Mutex
	info NodeInfo
}

func newNode(s *session, fqn string, namespace string) *node {
	return &node{
		session: s,
		info: NodeInfo{
			ID:        uuid.NewString(),
			Name:      fqn,
			Namespace: namespace,
			ContextID: s.id,
			StartedAt: time.Now().UTC(),
		},
	}
}

func (n *node) FullyQualifiedName() string { return n.info.Name }

func (n *node) Namespace() string { return n.info.Namespace }

// startHeartbeat writes the node's graph entry and keeps it alive. No-op
// without a graph bucket.
func (n *node) startHeartbeat(ctx context.Context) error {
	kv := n.session.graph
	if kv == nil {
		return nil
	}

	interval := max(n.session.backend.cfg.GraphTTL/3, minHeartbeatInterval)
	n.hb = heartbeat.New(kv, n.info.ID, interval, n.payload)
	n.hb.SetLogger(n.session.backend.logger)

	if err := n.hb.Start(ctx); err != nil {
		return fmt.Errorf("announce node %s: %w", n.info.Name, err)
	}

	return nil
}

// payload returns a snapshot of the node's graph entry.
func (n *node) payload() (any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	info := n.info
	info.Subscriptions = append([]SubscriptionInfo(nil), n.info.Subscriptions...)

	return info, nil
}

// announce pushes the current graph entry without waiting for the next heartbeat.
func (n *node) announce(ctx context.Context) error {
	if n.hb == nil {
		return nil
	}

	return n.hb.Publish(ctx)
}

func (n *node) Subscribe(ctx context.Context, topic string, qos types.QoSPolicy) (transport.Subscription, error) {
	s := n.session
	if n.closed.Load() || s.closed.Load() {
		return nil, types.ErrHandleClosed
	}

	fqn, err := transport.ResolveTopic(n.info.Namespace, topic)
	if err != nil {
		return nil, err
	}

	cfg := s.backend.cfg
	subject := Subject(cfg.SubjectPrefix, fqn)

	var sub transport.Subscription
	if cfg.Stream != "" && (qos.Reliability == types.ReliabilityReliable || qos.Durability == types.DurabilityTransientLocal) {
		sub, err = newStreamSubscription(ctx, s.nc, s.js, cfg.Stream, cfg.ConnectTimeout, s.backend.logger, fqn, subject, qos)
	} else {
		if qos.Durability == types.DurabilityTransientLocal {
			s.backend.logger.Warn("transient-local durability needs a stream; subscribing volatile",
				"topic", fqn, "subject", subject)
		}
		sub, err = newCoreSubscription(s.nc, cfg.ConnectTimeout, fqn, subject, qos)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	n.mu.Lock()
	n.info.Subscriptions = append(n.info.Subscriptions, SubscriptionInfo{
		Topic:   fqn,
		Subject: subject,
		QoS:     qos.String(),
		Mode:    modeOf(sub),
	})
	n.mu.Unlock()

	if err := n.announce(ctx); err != nil {
		s.backend.logger.Warn("node graph update failed", "node", n.info.Name, "error", err)
	}

	return sub, nil
}

func (n *node) Close(ctx context.Context) error {
	if !n.closed.CompareAndSwap(false, true) {
		return types.ErrHandleClosed
	}

	if n.hb == nil {
		return nil
	}

	err := n.hb.Stop(ctx)
	if err != nil && !n.session.closed.Load() {
		return fmt.Errorf("remove node %s from graph: %w", n.info.Name, err)
	}

	return nil
}
