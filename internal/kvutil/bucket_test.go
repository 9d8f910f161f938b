package kvutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	robotcmdtest "github.com/arloliu/robotcmd/testing"
)

// TestEnsureKVBucketWithRetry tests the retry utility function.
func TestEnsureKVBucketWithRetry(t *testing.T) {
	_, nc := robotcmdtest.StartEmbeddedNATS(t)

	ctx := t.Context()
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	t.Run("successful creation on first try", func(t *testing.T) {
		cfg := jetstream.KeyValueConfig{
			Bucket:  "test-retry-bucket-1",
			History: 1,
			TTL:     5 * time.Second,
		}

		kv, err := EnsureKVBucketWithRetry(ctx, js, cfg, 3)
		require.NoError(t, err)
		require.NotNil(t, kv)
	})

	t.Run("bucket exists - should open it", func(t *testing.T) {
		cfg := jetstream.KeyValueConfig{
			Bucket:  "test-retry-bucket-2",
			History: 1,
			TTL:     5 * time.Second,
		}

		kv1, err := js.CreateKeyValue(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, kv1)

		kv2, err := EnsureKVBucketWithRetry(ctx, js, cfg, 3)
		require.NoError(t, err)
		require.NotNil(t, kv2)
	})

	t.Run("concurrent creates with retry - 10 subscribers", func(t *testing.T) {
		numWorkers := 10

		var wg sync.WaitGroup
		errs := make(chan error, numWorkers)
		kvs := make([]jetstream.KeyValue, numWorkers)

		cfg := jetstream.KeyValueConfig{
			Bucket:  "test-retry-bucket-3",
			History: 1,
			TTL:     5 * time.Second,
		}

		for i := 0; i < numWorkers; i++ {
			wg.Add(1) //nolint:revive // Standard pattern for concurrent operations
			go func(idx int) {
				defer wg.Done()

				kv, err := EnsureKVBucketWithRetry(ctx, js, cfg, 5)
				if err != nil {
					errs <- err
					return
				}

				kvs[idx] = kv
			}(i)
		}

		wg.Wait()
		close(errs)

		var errList []error
		for err := range errs {
			errList = append(errList, err)
		}

		require.Empty(t, errList, "All subscribers should succeed with retry")
		for i, kv := range kvs {
			require.NotNil(t, kv, "Subscriber %d should have valid KV instance", i)
		}
	})

	t.Run("context timeout - should fail gracefully", func(t *testing.T) {
		shortCtx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
		defer cancel()

		time.Sleep(1 * time.Millisecond)

		cfg := jetstream.KeyValueConfig{
			Bucket:  "test-retry-bucket-4",
			History: 1,
		}

		_, err := EnsureKVBucketWithRetry(shortCtx, js, cfg, 3)
		require.Error(t, err)
		require.Contains(t, err.Error(), "context")
	})
}

type nodeRecord struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
}

func TestJSONHelpers(t *testing.T) {
	ctx := t.Context()
	_, nc := robotcmdtest.StartEmbeddedNATS(t)
	kv := robotcmdtest.CreateJetStreamKV(t, nc, "graph")

	keys, err := ListKeys(ctx, kv)
	require.NoError(t, err)
	require.Empty(t, keys)

	rev, err := PutJSON(ctx, kv, "node-1", nodeRecord{Name: "/robot_cmd_subscriber", Topic: "/robot_cmd"})
	require.NoError(t, err)
	require.NotZero(t, rev)

	var got nodeRecord
	require.NoError(t, GetJSON(ctx, kv, "node-1", &got))
	require.Equal(t, "/robot_cmd_subscriber", got.Name)
	require.Equal(t, "/robot_cmd", got.Topic)

	keys, err = ListKeys(ctx, kv)
	require.NoError(t, err)
	require.Equal(t, []string{"node-1"}, keys)

	err = GetJSON(ctx, kv, "missing", &got)
	require.True(t, errors.Is(err, jetstream.ErrKeyNotFound))

	_, err = kv.Put(ctx, "garbage", []byte("{"))
	require.NoError(t, err)
	require.Error(t, GetJSON(ctx, kv, "garbage", &got))
}
