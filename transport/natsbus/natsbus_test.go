package natsbus

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/robotcmd/internal/natsutil"
	robotcmdtest "github.com/arloliu/robotcmd/testing"
	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

func takeEventually(t *testing.T, sub transport.Subscription) []byte {
	t.Helper()

	var data []byte
	require.Eventually(t, func() bool {
		got, err := sub.TryTake()
		if err != nil {
			return false
		}
		data = got

		return true
	}, 3*time.Second, 10*time.Millisecond)

	return data
}

func publish(t *testing.T, nc *nats.Conn, subject string, data string) {
	t.Helper()
	require.NoError(t, nc.Publish(subject, []byte(data)))
	require.NoError(t, nc.Flush())
}

func TestSubject(t *testing.T) {
	require.Equal(t, "robotcmd.robot1.robot_cmd", Subject("robotcmd", "/robot1/robot_cmd"))
	require.Equal(t, "robot_cmd", Subject("", "/robot_cmd"))
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, DefaultURL, cfg.URL)
	require.Equal(t, DefaultSubjectPrefix, cfg.SubjectPrefix)
	require.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	require.Equal(t, DefaultGraphTTL, cfg.GraphTTL)
}

func TestBackend_CoreSubscription(t *testing.T) {
	ns, nc := robotcmdtest.StartEmbeddedNATS(t)
	ctx := t.Context()

	backend := New(Config{URL: ns.ClientURL()}, robotcmdtest.NewTestLogger(t))
	require.Equal(t, BackendName, backend.Name())

	sess, err := backend.Open(ctx, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(ctx) })

	node, err := sess.NewNode(ctx, "robot_cmd_subscriber", "robot1")
	require.NoError(t, err)
	require.Equal(t, "/robot1/robot_cmd_subscriber", node.FullyQualifiedName())

	sub, err := node.Subscribe(ctx, "robot_cmd", types.QoSPolicy{Reliability: types.ReliabilityBestEffort, Depth: 10})
	require.NoError(t, err)
	require.Equal(t, "/robot1/robot_cmd", sub.Topic())

	_, err = sub.TryTake()
	require.ErrorIs(t, err, types.ErrNoData)

	publish(t, nc, "robotcmd.robot1.robot_cmd", "first")
	publish(t, nc, "robotcmd.robot1.robot_cmd", "second")

	require.Equal(t, []byte("first"), takeEventually(t, sub))
	require.Equal(t, []byte("second"), takeEventually(t, sub))

	require.NoError(t, sub.Close())
	require.ErrorIs(t, sub.Close(), types.ErrHandleClosed)
	require.NoError(t, node.Close(ctx))
	require.ErrorIs(t, node.Close(ctx), types.ErrHandleClosed)
}

func TestBackend_ReliableWithoutStreamUsesCore(t *testing.T) {
	ns, nc := robotcmdtest.StartEmbeddedNATS(t)
	ctx := t.Context()

	sess, err := New(Config{URL: ns.ClientURL()}, nil).Open(ctx, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(ctx) })

	node, err := sess.NewNode(ctx, "n", "")
	require.NoError(t, err)

	sub, err := node.Subscribe(ctx, "robot_cmd", types.QoSPolicy{Reliability: types.ReliabilityReliable, Depth: 1})
	require.NoError(t, err)
	require.IsType(t, &coreSubscription{}, sub)

	publish(t, nc, "robotcmd.robot_cmd", "x")
	require.Equal(t, []byte("x"), takeEventually(t, sub))
}

func TestBackend_StreamSubscription(t *testing.T) {
	ns, nc := robotcmdtest.StartEmbeddedNATS(t)
	ctx := t.Context()
	robotcmdtest.CreateStream(t, nc, "ROBOTCMD", "robotcmd.>")

	// published before anyone subscribes
	publish(t, nc, "robotcmd.robot1.robot_cmd", "old-1")
	publish(t, nc, "robotcmd.robot1.robot_cmd", "old-2")

	sess, err := New(Config{URL: ns.ClientURL(), Stream: "ROBOTCMD"}, nil).Open(ctx, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(ctx) })

	node, err := sess.NewNode(ctx, "n", "robot1")
	require.NoError(t, err)

	t.Run("reliable volatile only sees new messages", func(t *testing.T) {
		// the consumer exists from Subscribe on, so nothing published later is missed
		sub, err := node.Subscribe(ctx, "robot_cmd", types.QoSPolicy{Reliability: types.ReliabilityReliable, Depth: 10})
		require.NoError(t, err)
		require.IsType(t, &streamSubscription{}, sub)
		t.Cleanup(func() { _ = sub.Close() })

		_, err = sub.TryTake()
		require.ErrorIs(t, err, types.ErrNoData)

		publish(t, nc, "robotcmd.robot1.robot_cmd", "new")
		require.Equal(t, []byte("new"), takeEventually(t, sub))
	})

	t.Run("transient local replays the last message", func(t *testing.T) {
		sub, err := node.Subscribe(ctx, "robot_cmd", types.QoSPolicy{
			Reliability: types.ReliabilityReliable,
			Durability:  types.DurabilityTransientLocal,
			Depth:       1,
		})
		require.NoError(t, err)

		require.Equal(t, []byte("new"), takeEventually(t, sub))

		require.NoError(t, sub.Close())
		_, err = sub.TryTake()
		require.ErrorIs(t, err, types.ErrHandleClosed)
	})

	t.Run("best effort stays on core", func(t *testing.T) {
		sub, err := node.Subscribe(ctx, "robot_cmd", types.QoSPolicy{Reliability: types.ReliabilityBestEffort})
		require.NoError(t, err)
		require.IsType(t, &coreSubscription{}, sub)
		require.NoError(t, sub.Close())
	})
}

func TestBackend_MissingStream(t *testing.T) {
	ns, _ := robotcmdtest.StartEmbeddedNATS(t)
	ctx := t.Context()

	sess, err := New(Config{URL: ns.ClientURL(), Stream: "NOPE"}, nil).Open(ctx, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(ctx) })

	node, err := sess.NewNode(ctx, "n", "")
	require.NoError(t, err)

	_, err = node.Subscribe(ctx, "robot_cmd", types.QoSPolicy{Reliability: types.ReliabilityReliable})
	require.ErrorIs(t, err, jetstream.ErrStreamNotFound)
}

func TestBackend_NodeGraph(t *testing.T) {
	ns, nc := robotcmdtest.StartEmbeddedNATS(t)
	ctx := t.Context()

	backend := New(Config{URL: ns.ClientURL(), GraphBucket: "robotcmd-graph"}, nil)
	sess, err := backend.Open(ctx, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(ctx) })

	node, err := sess.NewNode(ctx, "robot_cmd_subscriber", "robot1")
	require.NoError(t, err)
	_, err = node.Subscribe(ctx, "robot_cmd", types.QoSPolicy{Reliability: types.ReliabilityBestEffort, Depth: 5})
	require.NoError(t, err)

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	kv, err := js.KeyValue(ctx, "robotcmd-graph")
	require.NoError(t, err)

	nodes, err := ListNodes(ctx, kv)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "/robot1/robot_cmd_subscriber", nodes[0].Name)
	require.Equal(t, uint64(4), nodes[0].ContextID)
	require.Len(t, nodes[0].Subscriptions, 1)
	require.Equal(t, "robotcmd.robot1.robot_cmd", nodes[0].Subscriptions[0].Subject)
	require.Equal(t, ModeCore, nodes[0].Subscriptions[0].Mode)

	require.NoError(t, node.Close(ctx))

	nodes, err = ListNodes(ctx, kv)
	require.NoError(t, err)
	require.Empty(t, nodes)
}

func TestBackend_ConnectFailure(t *testing.T) {
	backend := New(Config{URL: "nats://127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond}, nil)

	_, err := backend.Open(t.Context(), 0)
	require.Error(t, err)
}

func TestSession_CloseTwice(t *testing.T) {
	ns, _ := robotcmdtest.StartEmbeddedNATS(t)
	ctx := t.Context()

	sess, err := New(Config{URL: ns.ClientURL()}, nil).Open(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, sess.Close(ctx))
	require.ErrorIs(t, sess.Close(ctx), types.ErrHandleClosed)

	_, err = sess.NewNode(ctx, "n", "")
	require.ErrorIs(t, err, types.ErrHandleClosed)
}

func TestBackend_NodeGraphHeartbeat(t *testing.T) {
	ns, nc := robotcmdtest.StartEmbeddedNATS(t)
	ctx := t.Context()

	backend := New(Config{URL: ns.ClientURL(), GraphBucket: "hb-graph", GraphTTL: time.Second}, nil)
	sess, err := backend.Open(ctx, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(ctx) })

	node, err := sess.NewNode(ctx, "robot_cmd_subscriber", "")
	require.NoError(t, err)

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	kv, err := js.KeyValue(ctx, "hb-graph")
	require.NoError(t, err)

	// Outlive the bucket TTL; the node keeps refreshing its entry.
	time.Sleep(1500 * time.Millisecond)

	nodes, err := ListNodes(ctx, kv)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "/robot_cmd_subscriber", nodes[0].Name)

	require.NoError(t, node.Close(ctx))
}

func TestSubscription_ServerDown(t *testing.T) {
	// One host tick at the default rate.
	const tick = 20 * time.Millisecond

	tests := []struct {
		name   string
		stream string
		qos    types.QoSPolicy
	}{
		{
			name: "core",
			qos:  types.QoSPolicy{Reliability: types.ReliabilityBestEffort, Depth: 10},
		},
		{
			name:   "stream",
			stream: "ROBOTCMD",
			qos:    types.QoSPolicy{Reliability: types.ReliabilityReliable, Depth: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, nc := robotcmdtest.StartEmbeddedNATS(t)
			ctx := t.Context()
			if tt.stream != "" {
				robotcmdtest.CreateStream(t, nc, tt.stream, "robotcmd.>")
			}

			sess, err := New(Config{
				URL:            ns.ClientURL(),
				Stream:         tt.stream,
				ConnectTimeout: 200 * time.Millisecond,
			}, nil).Open(ctx, 0)
			require.NoError(t, err)
			t.Cleanup(func() { _ = sess.Close(context.Background()) })

			node, err := sess.NewNode(ctx, "n", "robot1")
			require.NoError(t, err)
			sub, err := node.Subscribe(ctx, "robot_cmd", tt.qos)
			require.NoError(t, err)
			t.Cleanup(func() { _ = sub.Close() })

			publish(t, nc, "robotcmd.robot1.robot_cmd", "before")
			require.Equal(t, []byte("before"), takeEventually(t, sub))

			ns.Shutdown()
			ns.WaitForShutdown()

			var slowest time.Duration
			require.Eventually(t, func() bool {
				start := time.Now()
				_, err := sub.TryTake()
				slowest = max(slowest, time.Since(start))

				return natsutil.IsConnectivityError(err)
			}, 3*time.Second, 10*time.Millisecond)
			require.Less(t, slowest, tick)

			for range 3 {
				start := time.Now()
				_, err := sub.TryTake()
				require.Less(t, time.Since(start), tick)
				require.True(t, natsutil.IsConnectivityError(err), "got %v", err)
			}
		})
	}
}

func TestStreamSubscription_BufferKeepsNewest(t *testing.T) {
	ns, nc := robotcmdtest.StartEmbeddedNATS(t)
	ctx := t.Context()
	robotcmdtest.CreateStream(t, nc, "ROBOTCMD", "robotcmd.>")

	sess, err := New(Config{URL: ns.ClientURL(), Stream: "ROBOTCMD"}, nil).Open(ctx, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(context.Background()) })

	node, err := sess.NewNode(ctx, "n", "")
	require.NoError(t, err)
	sub, err := node.Subscribe(ctx, "robot_cmd", types.QoSPolicy{Reliability: types.ReliabilityReliable, Depth: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	ss, ok := sub.(*streamSubscription)
	require.True(t, ok)
	require.Equal(t, 2, cap(ss.msgs))

	for _, data := range []string{"1", "2", "3", "4"} {
		publish(t, nc, "robotcmd.robot_cmd", data)
	}

	require.Eventually(t, func() bool {
		return ss.dropped.Load() == 2 && len(ss.msgs) == 2
	}, 3*time.Second, 10*time.Millisecond)

	got, err := sub.TryTake()
	require.NoError(t, err)
	require.Equal(t, []byte("3"), got)

	got, err = sub.TryTake()
	require.NoError(t, err)
	require.Equal(t, []byte("4"), got)

	_, err = sub.TryTake()
	require.ErrorIs(t, err, types.ErrNoData)

	require.NoError(t, sub.Close())
	_, err = sub.TryTake()
	require.ErrorIs(t, err, types.ErrHandleClosed)
}
