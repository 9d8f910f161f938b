// Package loopback provides an in-process transport backend.
//
// A Bus delivers published payloads to every matching subscription in the same
// process. It honours queue depth (keep-last, oldest dropped first) and
// transient-local durability (late subscribers receive the last published
// value). Faults can be injected per operation, which makes it the backend of
// choice for exercising teardown and retry paths in tests.
package loopback

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

// BackendName is the name reported by Bus.Name.
const BackendName = "loopback"

// Op identifies a transport operation for fault injection.
type Op int

const (
	OpOpen Op = iota
	OpNode
	OpSubscribe
	OpTake
	OpCloseSub
	OpCloseNode
	OpCloseSession
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpOpen:
		return "open"
	case OpNode:
		return "node"
	case OpSubscribe:
		return "subscribe"
	case OpTake:
		return "take"
	case OpCloseSub:
		return "close_subscription"
	case OpCloseNode:
		return "close_node"
	case OpCloseSession:
		return "close_session"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Bus is an in-process message bus implementing transport.Backend.
type Bus struct {
	topics *xsync.Map[string, *topic]
	faults *xsync.Map[Op, error]

	sessions      atomic.Int64
	nodes         atomic.Int64
	subscriptions atomic.Int64
	opened        atomic.Int64
}

// Compile-time assertion that Bus implements Backend.
var _ transport.Backend = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		topics: xsync.NewMap[string, *topic](),
		faults: xsync.NewMap[Op, error](),
	}
}

// Name returns BackendName.
func (b *Bus) Name() string {
	return BackendName
}

// Open creates a session. The context id is informational only.
func (b *Bus) Open(_ context.Context, contextID uint64) (transport.Session, error) {
	if err := b.fault(OpOpen); err != nil {
		return nil, err
	}

	b.sessions.Add(1)
	b.opened.Add(1)

	return &session{bus: b, id: contextID}, nil
}

// SetFault makes every subsequent op fail with err until cleared.
func (b *Bus) SetFault(op Op, err error) {
	b.faults.Store(op, err)
}

// ClearFault removes the fault for op.
func (b *Bus) ClearFault(op Op) {
	b.faults.Delete(op)
}

// Publish delivers data to every subscription on topicName.
//
// topicName is resolved against the root namespace. The payload is copied, so
// callers may reuse data. The value is also latched for transient-local
// subscribers created later.
//
// Returns:
//   - int: Number of subscriptions the payload was queued on
//   - error: types.ErrInvalidName if topicName cannot be resolved
func (b *Bus) Publish(topicName string, data []byte) (int, error) {
	fqn, err := transport.ResolveTopic("", topicName)
	if err != nil {
		return 0, err
	}

	t := b.topic(fqn)

	return t.publish(slices.Clone(data)), nil
}

// OpenSessions returns the number of sessions not yet closed.
func (b *Bus) OpenSessions() int {
	return int(b.sessions.Load())
}

// SessionsOpened returns the total number of sessions ever opened.
func (b *Bus) SessionsOpened() int {
	return int(b.opened.Load())
}

// OpenNodes returns the number of nodes not yet closed.
func (b *Bus) OpenNodes() int {
	return int(b.nodes.Load())
}

// OpenSubscriptions returns the number of subscriptions not yet closed.
func (b *Bus) OpenSubscriptions() int {
	return int(b.subscriptions.Load())
}

// Subscribers returns the number of live subscriptions on topicName.
func (b *Bus) Subscribers(topicName string) int {
	fqn, err := transport.ResolveTopic("", topicName)
	if err != nil {
		return 0
	}

	t, ok := b.topics.Load(fqn)
	if !ok {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.subs)
}

func (b *Bus) fault(op Op) error {
	if err, ok := b.faults.Load(op); ok && err != nil {
		return fmt.Errorf("loopback %s: %w", op, err)
	}

	return nil
}

func (b *Bus) topic(fqn string) *topic {
	t, _ := b.topics.LoadOrStore(fqn, &topic{subs: make(map[*subscription]struct{})})
	return t
}

// topic holds the subscribers and latched value of one resolved topic name.
type topic struct {
	mu      sync.Mutex
	subs    map[*subscription]struct{}
	latched []byte
}

func (t *topic) publish(data []byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latched = data
	for sub := range t.subs {
		sub.enqueue(data)
	}

	return len(t.subs)
}

func (t *topic) attach(sub *subscription, durability types.Durability) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.subs[sub] = struct{}{}
	if durability == types.DurabilityTransientLocal && t.latched != nil {
		sub.enqueue(t.latched)
	}
}

func (t *topic) detach(sub *subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.subs, sub)
}
