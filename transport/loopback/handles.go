package loopback

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

type session struct {
	bus    *Bus
	id     uint64
	closed atomic.Bool
}

func (s *session) NewNode(_ context.Context, name string, namespace string) (transport.Node, error) {
	if s.closed.Load() {
		return nil, types.ErrHandleClosed
	}
	if err := s.bus.fault(OpNode); err != nil {
		return nil, err
	}

	ns, err := transport.ResolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	fqn, err := transport.NodeFQN(namespace, name)
	if err != nil {
		return nil, err
	}

	s.bus.nodes.Add(1)

	return &node{session: s, fqn: fqn, namespace: ns}, nil
}

func (s *session) Close(_ context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return types.ErrHandleClosed
	}

	s.bus.sessions.Add(-1)

	return s.bus.fault(OpCloseSession)
}

type node struct {
	session   *session
	fqn       string
	namespace string
	closed    atomic.Bool
}

func (n *node) FullyQualifiedName() string { return n.fqn }

func (n *node) Namespace() string { return n.namespace }

func (n *node) Subscribe(_ context.Context, topicName string, qos types.QoSPolicy) (transport.Subscription, error) {
	if n.closed.Load() || n.session.closed.Load() {
		return nil, types.ErrHandleClosed
	}

	bus := n.session.bus
	if err := bus.fault(OpSubscribe); err != nil {
		return nil, err
	}

	fqn, err := transport.ResolveTopic(n.namespace, topicName)
	if err != nil {
		return nil, err
	}

	t := bus.topic(fqn)
	sub := &subscription{bus: bus, topic: t, name: fqn, depth: int(qos.Depth)} //nolint:gosec // depth comes from a validated non-negative int
	t.attach(sub, qos.Durability)
	bus.subscriptions.Add(1)

	return sub, nil
}

// Close closes the node. Subscriptions created from it stay attached until closed.
func (n *node) Close(_ context.Context) error {
	if !n.closed.CompareAndSwap(false, true) {
		return types.ErrHandleClosed
	}

	n.session.bus.nodes.Add(-1)

	return n.session.bus.fault(OpCloseNode)
}

// subscription is a keep-last queue. A depth of 0 keeps every message.
type subscription struct {
	bus   *Bus
	topic *topic
	name  string
	depth int

	mu     sync.Mutex
	queue  [][]byte
	closed bool
}

func (s *subscription) Topic() string { return s.name }

func (s *subscription) enqueue(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.queue = append(s.queue, data)
	if s.depth > 0 && len(s.queue) > s.depth {
		s.queue = s.queue[len(s.queue)-s.depth:]
	}
}

func (s *subscription) TryTake() ([]byte, error) {
	if err := s.bus.fault(OpTake); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrHandleClosed
	}
	if len(s.queue) == 0 {
		return nil, types.ErrNoData
	}

	data := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]

	return data, nil
}

// Close detaches the subscription. It is detached even when a fault is injected.
func (s *subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrHandleClosed
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.topic.detach(s)
	s.bus.subscriptions.Add(-1)

	return s.bus.fault(OpCloseSub)
}
