package testing

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const readyTimeout = 5 * time.Second

// StartEmbeddedNATS runs an in-process NATS server with JetStream on a random
// loopback port and returns it together with a connected client.
//
// JetStream state lives under t.TempDir(). The client and server are shut down
// by t.Cleanup, so tests only need the returned handles.
//
// Example:
//
//	func TestSubscriber(t *testing.T) {
//	    ns, _ := robotcmdtest.StartEmbeddedNATS(t)
//	    backend := natsbus.New(natsbus.Config{URL: ns.ClientURL()}, nil)
//	    registry, err := transport.NewRegistry(backend)
//	}
func StartEmbeddedNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	if err != nil {
		t.Fatalf("embedded NATS: create server: %v", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		t.Fatalf("embedded NATS: not ready after %s", readyTimeout)
	}

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Name(t.Name()),
		nats.Timeout(2*time.Second),
	)
	if err != nil {
		ns.Shutdown()
		t.Fatalf("embedded NATS: connect: %v", err)
	}

	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns, nc
}

// CreateJetStreamKV creates a memory-backed KV bucket with a one minute TTL,
// the shape natsbus uses for its node graph.
func CreateJetStreamKV(t *testing.T, nc *nats.Conn, bucketName string) jetstream.KeyValue {
	t.Helper()

	kv, err := jetStream(t, nc).CreateKeyValue(t.Context(), jetstream.KeyValueConfig{
		Bucket:  bucketName,
		TTL:     time.Minute,
		Storage: jetstream.MemoryStorage,
	})
	if err != nil {
		t.Fatalf("create KV bucket %s: %v", bucketName, err)
	}

	return kv
}

// CreateStream creates a memory-backed stream capturing subjects.
//
// Reliable and transient-local subscriptions in transport/natsbus read from a
// stream; tests create it up front the way an operator would.
//
// Example:
//
//	robotcmdtest.CreateStream(t, nc, "ROBOTCMD", "robotcmd.>")
func CreateStream(t *testing.T, nc *nats.Conn, name string, subjects ...string) jetstream.Stream {
	t.Helper()

	stream, err := jetStream(t, nc).CreateStream(t.Context(), jetstream.StreamConfig{
		Name:     name,
		Subjects: subjects,
		Storage:  jetstream.MemoryStorage,
	})
	if err != nil {
		t.Fatalf("create stream %s: %v", name, err)
	}

	return stream
}

func jetStream(t *testing.T, nc *nats.Conn) jetstream.JetStream {
	t.Helper()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("JetStream context: %v", err)
	}

	return js
}
