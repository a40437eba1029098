package kern

import (
	"testing"
	"time"

	"github.com/itohio/gokern/pkg/config"
)

// fakePort models the balance's periodic transmission without timing: each
// ResetInputBuffer starts a new transmission period in which the next
// scripted transmission becomes readable. Once it is consumed, reads time
// out (0, nil) until the next reset.
type fakePort struct {
	buffered      []byte   // Bytes already waiting in the receive buffer
	transmissions [][]byte // Transmissions still to come, one per period
	chunk         int      // Max bytes per Read (0 = unlimited)
	readErr       error

	armed    bool
	resets   int
	closed   int
	timeouts []time.Duration
}

func newFakePort(transmissions ...[]byte) *fakePort {
	return &fakePort{transmissions: transmissions}
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.buffered) == 0 && f.armed && len(f.transmissions) > 0 {
		f.buffered = f.transmissions[0]
		f.transmissions = f.transmissions[1:]
		f.armed = false
	}
	if len(f.buffered) == 0 {
		return 0, nil
	}

	limit := len(p)
	if f.chunk > 0 && f.chunk < limit {
		limit = f.chunk
	}
	n := copy(p[:limit], f.buffered)
	f.buffered = f.buffered[n:]
	return n, nil
}

func (f *fakePort) ResetInputBuffer() error {
	f.buffered = nil
	f.armed = true
	f.resets++
	return nil
}

func (f *fakePort) SetReadTimeout(t time.Duration) error {
	f.timeouts = append(f.timeouts, t)
	return nil
}

func (f *fakePort) Close() error {
	f.closed++
	return nil
}

// testConfig returns a configuration with zero waits for fake ports.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timing.Settle = 0
	cfg.Timing.ReadTimeout = 0
	cfg.Timing.ProbeTimeout = 0
	return cfg
}

// newTestBalance returns a Balance whose opener always hands out port.
func newTestBalance(t *testing.T, cfg *config.Config, port *fakePort) (*Balance, *[]string) {
	t.Helper()
	var opened []string
	b := New(cfg, WithOpener(func(name string, baudRate int) (Port, error) {
		opened = append(opened, name)
		return port, nil
	}))
	return b, &opened
}

// frameWithField builds an 18 byte frame carrying field at offset 4.
func frameWithField(field string) []byte {
	frame := []byte("    ")
	frame = append(frame, field...)
	for len(frame) < FrameSize-2 {
		frame = append(frame, ' ')
	}
	frame = append(frame, '\r', '\n')
	return frame[:FrameSize]
}
