package kern

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/itohio/gokern/pkg/config"
)

// simBufferLimit caps the simulated receive buffer like a UART FIFO would.
const simBufferLimit = 4096

var errPortClosed = errors.New("port closed")

// Simulator stands in for a balance on the serial line. Its Open method is an
// Opener: every port it opens transmits one frame per period around the
// configured weight. Opened at a baud rate other than the configured one, it
// transmits garbage, as a real balance would appear to.
type Simulator struct {
	cfg *config.MockConfig
}

// NewSimulator creates a simulated balance.
func NewSimulator(cfg *config.MockConfig) *Simulator {
	if cfg == nil {
		cfg = &config.MockConfig{
			Weight:     123.45,
			NoiseLevel: 0.002,
			Period:     100 * time.Millisecond,
			BaudRate:   int(DefaultBaudRate),
			Unit:       "g",
		}
	}
	return &Simulator{cfg: cfg}
}

// Open starts transmitting on a new simulated port.
func (s *Simulator) Open(name string, baudRate int) (Port, error) {
	ctx, cancel := context.WithCancel(context.Background())

	p := &simPort{
		cfg:     s.cfg,
		garble:  baudRate != s.cfg.BaudRate,
		notify:  make(chan struct{}, 1),
		timeout: -1,
		ctx:     ctx,
		cancel:  cancel,
		start:   time.Now(),
	}

	go p.transmit()

	return p, nil
}

type simPort struct {
	cfg    *config.MockConfig
	garble bool
	start  time.Time

	mu      sync.Mutex
	buf     []byte
	timeout time.Duration
	closed  bool

	notify chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// transmit appends one frame per period to the receive buffer.
func (p *simPort) transmit() {
	period := p.cfg.Period
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case now := <-ticker.C:
			frame := EncodeFrame(p.weight(now), p.cfg.Unit)
			if p.garble {
				for i, c := range frame {
					frame[i] = ^c
				}
			}

			p.mu.Lock()
			p.buf = append(p.buf, frame...)
			if len(p.buf) > simBufferLimit {
				p.buf = p.buf[len(p.buf)-simBufferLimit:]
			}
			p.mu.Unlock()

			select {
			case p.notify <- struct{}{}:
			default:
			}
		}
	}
}

// weight returns the nominal load plus a small deterministic wobble.
func (p *simPort) weight(now time.Time) float64 {
	elapsed := float64(now.Sub(p.start).Nanoseconds())
	noise := (math.Sin(elapsed*0.001) + math.Cos(elapsed*0.0013)) * p.cfg.NoiseLevel * 0.5
	return p.cfg.Weight + noise
}

// Read follows go.bug.st/serial semantics: it blocks until at least one byte
// is available and returns 0, nil when the read timeout expires.
func (p *simPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	timeout := p.timeout
	p.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return 0, errPortClosed
		}
		if len(p.buf) > 0 {
			n := copy(b, p.buf)
			p.buf = p.buf[n:]
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()

		if timeout == 0 {
			return 0, nil
		}

		select {
		case <-p.notify:
		case <-expired:
			return 0, nil
		case <-p.ctx.Done():
			return 0, errPortClosed
		}
	}
}

func (p *simPort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = nil
	return nil
}

func (p *simPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

func (p *simPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errPortClosed
	}
	p.closed = true
	p.cancel()
	return nil
}
