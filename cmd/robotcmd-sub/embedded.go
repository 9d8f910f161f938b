package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/robotcmd"
)

// embeddedNATS is an in-process NATS server for local development.
type embeddedNATS struct {
	srv      *server.Server
	storeDir string
}

// startEmbeddedNATS starts a JetStream-enabled server on a random port and,
// when the runtime names a stream, creates it over the subject prefix.
func startEmbeddedNATS(ctx context.Context, transport robotcmd.TransportConfig) (*embeddedNATS, error) {
	storeDir, err := os.MkdirTemp("", "robotcmd-nats-")
	if err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  storeDir,
		NoLog:     true,
		NoSigs:    true,
	})
	if err != nil {
		_ = os.RemoveAll(storeDir)
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	go srv.Start()

	e := &embeddedNATS{srv: srv, storeDir: storeDir}
	if !srv.ReadyForConnections(10 * time.Second) {
		e.Shutdown()
		return nil, errors.New("NATS server not ready")
	}

	if transport.Stream != "" {
		if err := createStream(ctx, srv.ClientURL(), transport.Stream, transport.SubjectPrefix+".>"); err != nil {
			e.Shutdown()
			return nil, err
		}
	}

	return e, nil
}

func createStream(ctx context.Context, url string, name string, subject string) error {
	nc, err := nats.Connect(url)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to get JetStream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     name,
		Subjects: []string{subject},
		Storage:  jetstream.MemoryStorage,
		MaxAge:   10 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", name, err)
	}

	return nil
}

// ClientURL returns the URL clients connect to.
func (e *embeddedNATS) ClientURL() string {
	return e.srv.ClientURL()
}

// Shutdown stops the server and removes its store.
func (e *embeddedNATS) Shutdown() {
	e.srv.Shutdown()
	e.srv.WaitForShutdown()
	_ = os.RemoveAll(e.storeDir) // best effort
}
