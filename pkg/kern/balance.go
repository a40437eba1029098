package kern

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/itohio/gokern/pkg/config"
)

// maxProbeSize bounds how much of the receive buffer the handshake inspects.
const maxProbeSize = 256

// Balance is a KERN balance connected over RS-232. It is safe to share
// between goroutines, but reads are not re-entrant: a second ReadValue
// waits for the first to finish.
type Balance struct {
	settle       time.Duration
	readTimeout  time.Duration
	probeTimeout time.Duration
	layout       Layout
	verify       bool
	open         Opener
	log          *zap.Logger

	mu        sync.Mutex
	conn      Port
	portName  string
	baudRate  BaudRate
	connected bool
}

// Option configures a Balance.
type Option func(*Balance)

// WithOpener replaces the serial port opener, e.g. with a Simulator.
func WithOpener(open Opener) Option {
	return func(b *Balance) {
		b.open = open
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(b *Balance) {
		b.log = log
	}
}

// New creates a disconnected Balance using the timing and frame sections of cfg.
// A nil cfg selects config.Default().
func New(cfg *config.Config, opts ...Option) *Balance {
	if cfg == nil {
		cfg = config.Default()
	}

	b := &Balance{
		settle:       cfg.Timing.Settle,
		readTimeout:  cfg.Timing.ReadTimeout,
		probeTimeout: cfg.Timing.ProbeTimeout,
		layout:       Layout{Offset: cfg.Frame.Offset, Length: cfg.Frame.Length},
		verify:       cfg.Frame.Verify,
		open:         OpenSerial,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if !b.layout.valid() {
		b.log.Warn("invalid frame layout, using default",
			zap.Int("offset", b.layout.Offset),
			zap.Int("length", b.layout.Length))
		b.layout = DefaultLayout
	}

	return b
}

// Connect opens the port, waits for the settling window and checks that the
// balance is present and talking at this baud rate. It never returns an
// error: the outcome is a success flag and a message fit for the user.
// On failure the port is closed.
func (b *Balance) Connect(port string, baudRate BaudRate) (bool, string) {
	if err := b.Open(port, baudRate); err != nil {
		return false, diagnostic(port, baudRate, err)
	}
	return true, fmt.Sprintf("KERN balance: initialisation done on port %s, baud rate = %d", port, baudRate)
}

// Open performs the same handshake as Connect and returns ErrNoDeviceDetected,
// ErrBaudRateMismatch or ErrUnsupportedBaudRate (possibly wrapped) on failure.
func (b *Balance) Open(port string, baudRate BaudRate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		if err := b.closeLocked(); err != nil {
			b.log.Warn("error closing previous connection", zap.String("port", b.portName), zap.Error(err))
		}
	}

	if !baudRate.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedBaudRate, baudRate)
	}

	log := b.log.With(zap.String("port", port), zap.Int("baud_rate", baudRate.Int()))

	conn, err := b.open(port, baudRate.Int())
	if err != nil {
		log.Debug("open failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrNoDeviceDetected, err)
	}

	if err := b.handshake(conn); err != nil {
		log.Info("initialisation test failed", zap.Error(err))
		if cerr := conn.Close(); cerr != nil {
			log.Warn("error closing serial port", zap.Error(cerr))
		}
		return err
	}

	b.conn = conn
	b.portName = port
	b.baudRate = baudRate
	b.connected = true

	log.Info("balance connected")
	return nil
}

// handshake runs the presence, decodability and (optionally) frame checks.
func (b *Balance) handshake(conn Port) error {
	if err := conn.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to reset input buffer: %w", err)
	}

	time.Sleep(b.settle)

	probe, err := b.drain(conn)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoDeviceDetected, err)
	}
	if len(probe) == 0 {
		return ErrNoDeviceDetected
	}
	if !isPrintable(probe) {
		return fmt.Errorf("%w: %d unprintable bytes received", ErrBaudRateMismatch, len(probe))
	}

	if b.verify {
		if _, err := b.readFrame(conn); err != nil {
			return fmt.Errorf("%w: %w", ErrBaudRateMismatch, err)
		}
	}

	return nil
}

// drain reads whatever the balance has buffered so far.
func (b *Balance) drain(conn Port) ([]byte, error) {
	if err := conn.SetReadTimeout(b.probeTimeout); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, maxProbeSize)
	chunk := make([]byte, 64)
	for len(buf) < maxProbeSize {
		n, err := conn.Read(chunk[:min(len(chunk), maxProbeSize-len(buf))])
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return buf, err
		}
		if n == 0 {
			break
		}
	}
	return buf, nil
}

// ReadValue discards stale input, waits for the next frame and decodes its
// measurement field. Failures are *FrameError, or ErrNotConnected.
func (b *Balance) ReadValue() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return 0, ErrNotConnected
	}

	value, err := b.readFrame(b.conn)
	if err != nil {
		b.log.Debug("read failed", zap.String("port", b.portName), zap.Error(err))
		return 0, err
	}
	return value, nil
}

func (b *Balance) readFrame(conn Port) (float64, error) {
	if err := conn.ResetInputBuffer(); err != nil {
		return 0, &FrameError{Err: err}
	}

	frame := make([]byte, FrameSize)
	n, err := readFull(conn, frame, b.readTimeout)
	if err != nil {
		return 0, &FrameError{Err: err, Received: n}
	}
	if n < FrameSize {
		return 0, &FrameError{Err: ErrShortRead, Received: n}
	}

	return DecodeFrame(frame, b.layout)
}

// readFull reads into buf until it is full or timeout elapses. A read that
// returns no data means the port timed out.
func readFull(conn Port, buf []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	n := 0
	for n < len(buf) {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		if err := conn.SetReadTimeout(remaining); err != nil {
			return n, err
		}

		k, err := conn.Read(buf[n:])
		n += k
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return n, err
		}
		if k == 0 {
			break
		}
	}
	return n, nil
}

// Disconnect closes the port. It is safe to call repeatedly or without a
// prior Connect.
func (b *Balance) Disconnect() {
	if err := b.Close(); err != nil {
		b.log.Warn("error closing serial port", zap.Error(err))
	}
}

// Close closes the port and returns the driver's error, if any.
func (b *Balance) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

func (b *Balance) closeLocked() error {
	if !b.connected {
		return nil
	}

	err := b.conn.Close()
	b.conn = nil
	b.connected = false
	b.log.Info("balance disconnected", zap.String("port", b.portName))
	return err
}

// IsConnected returns whether the balance is currently connected.
func (b *Balance) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Port returns the name of the connected port, or "" when disconnected.
func (b *Balance) Port() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return ""
	}
	return b.portName
}

// BaudRate returns the rate of the current connection, or 0 when disconnected.
func (b *Balance) BaudRate() BaudRate {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return 0
	}
	return b.baudRate
}

func diagnostic(port string, baudRate BaudRate, err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedBaudRate):
		return fmt.Sprintf("KERN balance: baud rate %d is not supported, choose one of %v", baudRate, SupportedBaudRates)
	case errors.Is(err, ErrBaudRateMismatch):
		return fmt.Sprintf("KERN balance: initialisation test: wrong baud rate %d on port %s (%v)", baudRate, port, err)
	case errors.Is(err, ErrNoDeviceDetected):
		return fmt.Sprintf("KERN balance: initialisation test: no data from the instrument on port %s. "+
			"Maybe the instrument is not plugged in, or the serial port is wrong (%v)", port, err)
	default:
		return fmt.Sprintf("KERN balance: initialisation failed on port %s: %v", port, err)
	}
}
