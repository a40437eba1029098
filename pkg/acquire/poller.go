package acquire

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultInterval is used when no polling interval is given.
	DefaultInterval = 500 * time.Millisecond
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
)

var (
	errAlreadyRunning = errors.New("poller already running")
	errStopped        = errors.New("poller stopped")
)

// Poller reads a Source on a fixed cadence and publishes the results.
// All access to the source goes through the poller, so polling and
// triggered reads never overlap.
type Poller struct {
	src      Source
	interval time.Duration
	log      *zap.Logger

	readMu   sync.Mutex
	readings chan Reading

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	stopped bool
}

// NewPoller creates a stopped poller. Zero interval or bufSize select the defaults.
func NewPoller(src Source, interval time.Duration, bufSize int, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Poller{
		src:      src,
		interval: interval,
		log:      log,
		readings: make(chan Reading, bufSize),
	}
}

// Readings returns the channel polled readings are published on. It is
// closed by Stop.
func (p *Poller) Readings() <-chan Reading {
	return p.readings
}

// Start begins polling in a goroutine. A poller can be started once.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return errStopped
	}
	if p.running {
		return errAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.poll(ctx)

	return nil
}

// Stop ends polling, waits for an in-flight read and closes Readings.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true

	if p.running {
		p.cancel()
		<-p.done
		p.running = false
	}

	close(p.readings)
}

// Trigger performs a single read outside the polling cadence. The result is
// posted to the returned channel, which is closed afterwards.
func (p *Poller) Trigger() <-chan Reading {
	out := make(chan Reading, 1)
	go func() {
		defer close(out)
		out <- p.read()
	}()
	return out
}

func (p *Poller) poll(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		reading := p.read()

		select {
		case p.readings <- reading:
		case <-ctx.Done():
			return
		default:
			p.log.Warn("readings channel full, dropping reading")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) read() Reading {
	p.readMu.Lock()
	defer p.readMu.Unlock()

	value, err := p.src.ReadValue()
	if err != nil {
		p.log.Debug("reading failed", zap.Error(err))
	}

	return Reading{
		Timestamp: time.Now(),
		Value:     value,
		Err:       err,
	}
}
