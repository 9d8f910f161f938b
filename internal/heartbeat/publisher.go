package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/robotcmd/internal/kvutil"
	"github.com/arloliu/robotcmd/internal/logger"
	"github.com/arloliu/robotcmd/types"
)

// Common errors for heartbeat operations.
var (
	ErrNotStarted     = errors.New("publisher not started")
	ErrAlreadyStarted = errors.New("publisher already started")
	ErrNoKey          = errors.New("heartbeat key not set")
)

// PayloadFunc returns the current value of the entry. It is stored as JSON.
type PayloadFunc func() (any, error)

// Publisher periodically rewrites one KV entry.
//
// Each write resets the entry's age in a TTL bucket. When the writer stops
// without cleanup the entry expires after the bucket TTL.
type Publisher struct {
	kv       jetstream.KeyValue
	key      string
	interval time.Duration
	payload  PayloadFunc
	logger   types.Logger

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	ticker  *time.Ticker
}

// New creates a new heartbeat publisher.
//
// Parameters:
//   - kv: JetStream KV bucket holding the entry
//   - key: Entry key
//   - interval: Rewrite interval (about a third of the bucket TTL)
//   - payload: Produces the entry value on every write
//
// Returns:
//   - *Publisher: New, stopped publisher
func New(kv jetstream.KeyValue, key string, interval time.Duration, payload PayloadFunc) *Publisher {
	return &Publisher{
		kv:       kv,
		key:      key,
		interval: interval,
		payload:  payload,
		logger:   logger.NewNop(),
	}
}

// SetLogger sets the logger used for background write failures.
//
// Parameters:
//   - l: Logger instance (ignored if nil)
func (p *Publisher) SetLogger(l types.Logger) {
	if l == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger = l
}

// Start writes the entry and begins rewriting it in the background.
//
// Parameters:
//   - ctx: Context for the first write
//
// Returns:
//   - error: ErrAlreadyStarted if running, ErrNoKey if the key is empty, or the first write error
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}

	if p.key == "" {
		return ErrNoKey
	}

	// Publish first heartbeat immediately
	if err := p.publish(ctx); err != nil {
		return fmt.Errorf("failed to publish initial heartbeat: %w", err)
	}

	p.started = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.ticker = time.NewTicker(p.interval)

	go p.publishLoop(p.ticker, p.stopCh, p.doneCh)

	return nil
}

// Publish writes the entry now. Use it after the payload changed.
//
// Returns:
//   - error: ErrNotStarted if not running, or the write error
func (p *Publisher) Publish(ctx context.Context) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()

	if !started {
		return ErrNotStarted
	}

	return p.publish(ctx)
}

// Stop stops the background writes and deletes the entry.
//
// Blocks until the publisher goroutine exits. The entry is deleted so readers
// see the shutdown immediately instead of after the TTL.
//
// Returns:
//   - error: ErrNotStarted if not running, or the delete error
func (p *Publisher) Stop(ctx context.Context) error {
	p.mu.Lock()

	if !p.started {
		p.mu.Unlock()
		return ErrNotStarted
	}

	p.ticker.Stop()
	close(p.stopCh)
	p.started = false
	doneCh := p.doneCh

	p.mu.Unlock()

	<-doneCh

	if err := p.kv.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("stopped but failed to delete %s: %w", p.key, err)
	}

	return nil
}

func (p *Publisher) publishLoop(ticker *time.Ticker, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.interval)
			err := p.publish(ctx)
			cancel()

			if err != nil {
				p.mu.Lock()
				log := p.logger
				p.mu.Unlock()

				log.Warn("heartbeat write failed", "key", p.key, "error", err)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context) error {
	value, err := p.payload()
	if err != nil {
		return fmt.Errorf("failed to build heartbeat for %s: %w", p.key, err)
	}

	if _, err := kvutil.PutJSON(ctx, p.kv, p.key, value); err != nil {
		return fmt.Errorf("failed to publish heartbeat for %s: %w", p.key, err)
	}

	return nil
}

// Key returns the entry key.
func (p *Publisher) Key() string {
	return p.key
}

// IsStarted returns whether the publisher is currently running.
//
// Returns:
//   - bool: true if started, false otherwise
func (p *Publisher) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.started
}
