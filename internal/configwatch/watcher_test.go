package configwatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/robotcmd/types"
)

func c1() types.SubscriptionConfig {
	return types.SubscriptionConfig{
		Topic:      "robot_cmd",
		Namespace:  "robot1",
		QoSProfile: "default",
		QueueDepth: 10,
		ContextID:  1,
	}
}

func TestNeedsRecreate(t *testing.T) {
	t.Run("identical bound config", func(t *testing.T) {
		require.False(t, NeedsRecreate(c1(), c1(), true))
	})

	t.Run("never bound", func(t *testing.T) {
		require.False(t, NeedsRecreate(c1(), c1(), false))

		changed := c1()
		changed.Topic = "other"
		require.False(t, NeedsRecreate(changed, c1(), false))
	})

	singleField := []struct {
		name   string
		field  string
		mutate func(*types.SubscriptionConfig)
	}{
		{"topic", "topic", func(c *types.SubscriptionConfig) { c.Topic = "robot_cmd_v2" }},
		{"namespace", "namespace", func(c *types.SubscriptionConfig) { c.Namespace = "robot2" }},
		{"qos profile", "qos_profile", func(c *types.SubscriptionConfig) { c.QoSProfile = "sensor_data" }},
		{"queue depth", "queue_depth", func(c *types.SubscriptionConfig) { c.QueueDepth = 1 }},
		{"context id", "context_id", func(c *types.SubscriptionConfig) { c.ContextID = 2 }},
		{"case-sensitive topic", "topic", func(c *types.SubscriptionConfig) { c.Topic = "Robot_cmd" }},
	}
	for _, tt := range singleField {
		t.Run("single field "+tt.name, func(t *testing.T) {
			c2 := c1()
			tt.mutate(&c2)

			require.True(t, NeedsRecreate(c2, c1(), true))
			require.Equal(t, []string{tt.field}, Diff(c2, c1()))
		})
	}
}

func TestDiff_Multiple(t *testing.T) {
	c2 := c1()
	c2.Topic = "x"
	c2.ContextID = 99

	require.Equal(t, []string{"topic", "context_id"}, Diff(c2, c1()))
	require.Empty(t, Diff(c1(), c1()))
}
