package natsbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/robotcmd/types"
)

// Subscription modes reported in graph entries.
const (
	ModeCore   = "core"
	ModeStream = "stream"
)

func modeOf(sub any) string {
	if _, ok := sub.(*streamSubscription); ok {
		return ModeStream
	}

	return ModeCore
}

// connectionError reports why nc cannot deliver messages, or nil when it is connected.
func connectionError(nc *nats.Conn) error {
	switch {
	case nc.IsConnected():
		return nil
	case nc.IsClosed():
		return nats.ErrConnectionClosed
	case nc.IsReconnecting():
		return nats.ErrConnectionReconnecting
	default:
		return nats.ErrDisconnected
	}
}

// coreSubscription reads from a synchronous core NATS subscription.
//
// Messages beyond the pending limit are dropped by the client library and the
// subscription is flagged as a slow consumer.
type coreSubscription struct {
	topic string
	nc    *nats.Conn
	sub   *nats.Subscription
}

func newCoreSubscription(nc *nats.Conn, flushTimeout time.Duration, topic string, subject string, qos types.QoSPolicy) (*coreSubscription, error) {
	sub, err := nc.SubscribeSync(subject)
	if err != nil {
		return nil, err
	}

	if qos.Depth > 0 {
		if err := sub.SetPendingLimits(int(qos.Depth), -1); err != nil { //nolint:gosec // depth comes from a validated non-negative int
			_ = sub.Unsubscribe()
			return nil, fmt.Errorf("pending limits: %w", err)
		}
	}

	// make sure the server has registered interest before returning
	if err := nc.FlushTimeout(flushTimeout); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flush: %w", err)
	}

	return &coreSubscription{topic: topic, nc: nc, sub: sub}, nil
}

func (c *coreSubscription) Topic() string { return c.topic }

func (c *coreSubscription) TryTake() ([]byte, error) {
	msg, err := c.sub.NextMsg(0)
	if errors.Is(err, nats.ErrSlowConsumer) {
		// the flag is reported once; messages that were kept are still queued
		msg, err = c.sub.NextMsg(0)
	}

	switch {
	case err == nil:
		return msg.Data, nil
	case errors.Is(err, nats.ErrTimeout):
		if cerr := connectionError(c.nc); cerr != nil {
			return nil, cerr
		}

		return nil, types.ErrNoData
	case errors.Is(err, nats.ErrBadSubscription):
		return nil, fmt.Errorf("%w: %w", types.ErrHandleClosed, err)
	default:
		return nil, err
	}
}

func (c *coreSubscription) Close() error {
	if err := c.sub.Unsubscribe(); err != nil {
		if errors.Is(err, nats.ErrBadSubscription) || errors.Is(err, nats.ErrConnectionClosed) {
			return types.ErrHandleClosed
		}

		return err
	}

	return nil
}

// Pull loop tuning for stream subscriptions.
const (
	// consumerInactiveThreshold is how long the server keeps an abandoned consumer.
	consumerInactiveThreshold = 5 * time.Minute

	streamPullExpiry    = 5 * time.Second
	streamPullHeartbeat = 2 * time.Second
	streamRetryBackoff  = 250 * time.Millisecond

	// defaultStreamDepth bounds the local buffer when the QoS depth is 0.
	defaultStreamDepth = 256
)

// streamSubscription reads from an ephemeral JetStream pull consumer.
//
// A background pull loop moves delivered messages into a local buffer bounded
// by the QoS depth, dropping the oldest entry when it is full. TryTake only
// touches that buffer, so it never waits on the server. Messages are not
// acknowledged.
type streamSubscription struct {
	topic    string
	nc       *nats.Conn
	stream   jetstream.Stream
	consumer jetstream.Consumer
	name     string
	timeout  time.Duration
	logger   types.Logger

	msgs    chan []byte
	dropped atomic.Uint64
	pullErr atomic.Pointer[error]

	mu     sync.Mutex
	iter   jetstream.MessagesContext
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool
}

func newStreamSubscription(
	ctx context.Context,
	nc *nats.Conn,
	js jetstream.JetStream,
	streamName string,
	timeout time.Duration,
	logger types.Logger,
	topic string,
	subject string,
	qos types.QoSPolicy,
) (*streamSubscription, error) {
	stream, err := js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", streamName, err)
	}

	policy := jetstream.DeliverNewPolicy
	if qos.Durability == types.DurabilityTransientLocal {
		policy = jetstream.DeliverLastPerSubjectPolicy
	}

	consumer, err := stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject:     subject,
		DeliverPolicy:     policy,
		AckPolicy:         jetstream.AckNonePolicy,
		InactiveThreshold: consumerInactiveThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	depth := int(qos.Depth) //nolint:gosec // depth comes from a validated non-negative int
	if depth <= 0 {
		depth = defaultStreamDepth
	}

	s := &streamSubscription{
		topic:    topic,
		nc:       nc,
		stream:   stream,
		consumer: consumer,
		name:     consumer.CachedInfo().Name,
		timeout:  timeout,
		logger:   logger,
		msgs:     make(chan []byte, depth),
		done:     make(chan struct{}),
	}

	iter, err := s.messages()
	if err != nil {
		_ = s.deleteConsumer()
		return nil, fmt.Errorf("pull messages: %w", err)
	}

	pullCtx, cancel := context.WithCancel(context.Background())
	s.iter = iter
	s.cancel = cancel
	go s.pullLoop(pullCtx, iter)

	return s, nil
}

func (s *streamSubscription) messages() (jetstream.MessagesContext, error) {
	return s.consumer.Messages(
		jetstream.PullMaxMessages(cap(s.msgs)),
		jetstream.PullExpiry(streamPullExpiry),
		jetstream.PullHeartbeat(streamPullHeartbeat),
	)
}

// pullLoop feeds the local buffer until the subscription is closed. Iterator
// errors are parked for the next TryTake and the iterator is recreated.
func (s *streamSubscription) pullLoop(ctx context.Context, iter jetstream.MessagesContext) {
	defer close(s.done)

	for {
		msg, err := iter.Next()
		if err == nil {
			s.push(msg.Data())
			continue
		}

		iter.Stop()
		if ctx.Err() != nil {
			return
		}

		if connectionError(s.nc) == nil {
			s.pullErr.Store(&err)
		}
		s.logger.Debug("stream pull loop error, recreating iterator",
			"topic", s.topic, "consumer", s.name, "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(streamRetryBackoff):
			}

			next, err := s.messages()
			if err == nil {
				if !s.swapIter(next) {
					return
				}
				iter = next

				break
			}
			if connectionError(s.nc) == nil {
				s.pullErr.Store(&err)
			}
		}
	}
}

// swapIter installs next as the live iterator. It returns false and stops next
// when the subscription was closed in the meantime.
func (s *streamSubscription) swapIter(next jetstream.MessagesContext) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		next.Stop()
		return false
	}
	s.iter = next

	return true
}

// push appends data, evicting the oldest buffered message when full. Only the
// pull loop pushes, so the retry terminates.
func (s *streamSubscription) push(data []byte) {
	for {
		select {
		case s.msgs <- data:
			return
		default:
		}

		select {
		case <-s.msgs:
			s.dropped.Add(1)
		default:
		}
	}
}

func (s *streamSubscription) Topic() string { return s.topic }

// TryTake returns the oldest buffered message without blocking.
//
// With nothing buffered it reports the connection state, then a parked pull
// loop error once, and ErrNoData otherwise.
func (s *streamSubscription) TryTake() ([]byte, error) {
	if s.closed.Load() {
		return nil, types.ErrHandleClosed
	}

	select {
	case data := <-s.msgs:
		return data, nil
	default:
	}

	if err := connectionError(s.nc); err != nil {
		return nil, err
	}
	if errp := s.pullErr.Swap(nil); errp != nil {
		return nil, *errp
	}

	return nil, types.ErrNoData
}

// Close stops the pull loop and deletes the consumer. If the delete fails the
// server still removes the consumer once inactive.
func (s *streamSubscription) Close() error {
	s.mu.Lock()
	if !s.closed.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return types.ErrHandleClosed
	}
	s.cancel()
	s.iter.Stop()
	s.mu.Unlock()

	<-s.done

	return s.deleteConsumer()
}

func (s *streamSubscription) deleteConsumer() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.stream.DeleteConsumer(ctx, s.name); err != nil && !errors.Is(err, jetstream.ErrConsumerNotFound) {
		return fmt.Errorf("delete consumer %s: %w", s.name, err)
	}

	return nil
}
