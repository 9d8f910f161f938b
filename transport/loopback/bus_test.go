package loopback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

func subscribe(t *testing.T, bus *Bus, ns, topic string, qos types.QoSPolicy) (transport.Node, transport.Subscription) {
	t.Helper()

	sess, err := bus.Open(t.Context(), 0)
	require.NoError(t, err)

	node, err := sess.NewNode(t.Context(), "robot_cmd_subscriber", ns)
	require.NoError(t, err)

	sub, err := node.Subscribe(t.Context(), topic, qos)
	require.NoError(t, err)

	return node, sub
}

func TestBus_PublishTake(t *testing.T) {
	bus := NewBus()
	node, sub := subscribe(t, bus, "robot1", "robot_cmd", types.QoSPolicy{Depth: 10})

	require.Equal(t, "/robot1/robot_cmd_subscriber", node.FullyQualifiedName())
	require.Equal(t, "/robot1", node.Namespace())
	require.Equal(t, "/robot1/robot_cmd", sub.Topic())

	_, err := sub.TryTake()
	require.ErrorIs(t, err, types.ErrNoData)

	n, err := bus.Publish("/robot1/robot_cmd", []byte("a"))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	_, err = bus.Publish("/robot1/robot_cmd", []byte("b"))
	require.NoError(t, err)

	got, err := sub.TryTake()
	require.NoError(t, err)
	require.Equal(t, []byte("a"), got)

	got, err = sub.TryTake()
	require.NoError(t, err)
	require.Equal(t, []byte("b"), got)

	_, err = sub.TryTake()
	require.ErrorIs(t, err, types.ErrNoData)
}

func TestBus_OtherTopicNotDelivered(t *testing.T) {
	bus := NewBus()
	_, sub := subscribe(t, bus, "robot1", "robot_cmd", types.QoSPolicy{Depth: 10})

	n, err := bus.Publish("/robot2/robot_cmd", []byte("x"))
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = sub.TryTake()
	require.ErrorIs(t, err, types.ErrNoData)
}

func TestBus_KeepLastDepth(t *testing.T) {
	bus := NewBus()
	_, sub := subscribe(t, bus, "", "robot_cmd", types.QoSPolicy{Depth: 2})

	for _, p := range []string{"1", "2", "3"} {
		_, err := bus.Publish("robot_cmd", []byte(p))
		require.NoError(t, err)
	}

	got, err := sub.TryTake()
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)

	got, err = sub.TryTake()
	require.NoError(t, err)
	require.Equal(t, []byte("3"), got)
}

func TestBus_TransientLocal(t *testing.T) {
	bus := NewBus()
	_, err := bus.Publish("/robot_cmd", []byte("latched"))
	require.NoError(t, err)

	_, volatile := subscribe(t, bus, "", "robot_cmd", types.QoSPolicy{Depth: 1})
	_, err = volatile.TryTake()
	require.ErrorIs(t, err, types.ErrNoData)

	_, durable := subscribe(t, bus, "", "robot_cmd", types.QoSPolicy{
		Durability: types.DurabilityTransientLocal,
		Depth:      1,
	})
	got, err := durable.TryTake()
	require.NoError(t, err)
	require.Equal(t, []byte("latched"), got)
}

func TestBus_PublishCopiesPayload(t *testing.T) {
	bus := NewBus()
	_, sub := subscribe(t, bus, "", "robot_cmd", types.QoSPolicy{Depth: 1})

	data := []byte("abc")
	_, err := bus.Publish("robot_cmd", data)
	require.NoError(t, err)
	data[0] = 'z'

	got, err := sub.TryTake()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)
}

func TestBus_CloseAccounting(t *testing.T) {
	bus := NewBus()
	sess, err := bus.Open(t.Context(), 7)
	require.NoError(t, err)
	node, err := sess.NewNode(t.Context(), "n", "")
	require.NoError(t, err)
	sub, err := node.Subscribe(t.Context(), "robot_cmd", types.QoSPolicy{})
	require.NoError(t, err)

	require.Equal(t, 1, bus.OpenSessions())
	require.Equal(t, 1, bus.OpenNodes())
	require.Equal(t, 1, bus.OpenSubscriptions())
	require.Equal(t, 1, bus.Subscribers("robot_cmd"))

	require.NoError(t, sub.Close())
	require.ErrorIs(t, sub.Close(), types.ErrHandleClosed)
	_, err = sub.TryTake()
	require.ErrorIs(t, err, types.ErrHandleClosed)

	require.NoError(t, node.Close(t.Context()))
	require.NoError(t, sess.Close(t.Context()))

	require.Zero(t, bus.OpenSessions())
	require.Zero(t, bus.OpenNodes())
	require.Zero(t, bus.OpenSubscriptions())
	require.Zero(t, bus.Subscribers("robot_cmd"))
	require.Equal(t, 1, bus.SessionsOpened())

	_, err = sess.NewNode(t.Context(), "n", "")
	require.ErrorIs(t, err, types.ErrHandleClosed)
}

func TestBus_Faults(t *testing.T) {
	boom := errors.New("boom")

	t.Run("subscribe", func(t *testing.T) {
		bus := NewBus()
		bus.SetFault(OpSubscribe, boom)

		sess, err := bus.Open(t.Context(), 0)
		require.NoError(t, err)
		node, err := sess.NewNode(t.Context(), "n", "")
		require.NoError(t, err)

		_, err = node.Subscribe(t.Context(), "robot_cmd", types.QoSPolicy{})
		require.ErrorIs(t, err, boom)
		require.Zero(t, bus.OpenSubscriptions())

		bus.ClearFault(OpSubscribe)
		_, err = node.Subscribe(t.Context(), "robot_cmd", types.QoSPolicy{})
		require.NoError(t, err)
	})

	t.Run("close subscription still detaches", func(t *testing.T) {
		bus := NewBus()
		_, sub := subscribe(t, bus, "", "robot_cmd", types.QoSPolicy{})
		bus.SetFault(OpCloseSub, boom)

		require.ErrorIs(t, sub.Close(), boom)
		require.Zero(t, bus.OpenSubscriptions())
		require.Zero(t, bus.Subscribers("robot_cmd"))
	})

	t.Run("take", func(t *testing.T) {
		bus := NewBus()
		_, sub := subscribe(t, bus, "", "robot_cmd", types.QoSPolicy{})
		bus.SetFault(OpTake, boom)

		_, err := sub.TryTake()
		require.ErrorIs(t, err, boom)
		require.NotErrorIs(t, err, types.ErrNoData)
	})

	t.Run("open", func(t *testing.T) {
		bus := NewBus()
		bus.SetFault(OpOpen, boom)

		_, err := bus.Open(t.Context(), 0)
		require.ErrorIs(t, err, boom)
		require.Zero(t, bus.OpenSessions())
	})
}

func TestBus_InvalidNames(t *testing.T) {
	bus := NewBus()
	sess, err := bus.Open(t.Context(), 0)
	require.NoError(t, err)

	_, err = sess.NewNode(t.Context(), "bad/name", "")
	require.ErrorIs(t, err, types.ErrInvalidName)

	node, err := sess.NewNode(t.Context(), "n", "")
	require.NoError(t, err)
	_, err = node.Subscribe(t.Context(), "", types.QoSPolicy{})
	require.ErrorIs(t, err, types.ErrInvalidName)
	require.Zero(t, bus.OpenSubscriptions())

	_, err = bus.Publish("bad topic", nil)
	require.ErrorIs(t, err, types.ErrInvalidName)
}
