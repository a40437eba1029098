package kern

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDeviceDetected is returned when nothing is received within the
	// settling window: the balance is unplugged or the port is wrong.
	ErrNoDeviceDetected = errors.New("no data from the instrument")
	// ErrBaudRateMismatch is returned when bytes arrive but cannot be read as
	// a frame, which almost always means the baud rate is wrong.
	ErrBaudRateMismatch = errors.New("wrong baud rate")
	// ErrUnsupportedBaudRate is returned for a rate the balance cannot be set to.
	ErrUnsupportedBaudRate = errors.New("unsupported baud rate")
	// ErrNotConnected is returned by reads on a disconnected balance.
	ErrNotConnected = errors.New("not connected")

	// ErrShortRead means the frame did not arrive in full before the read timeout.
	ErrShortRead = errors.New("short read")
	// ErrUnparseableValue means the measurement field is not a number, e.g.
	// while the balance is taring or overloaded.
	ErrUnparseableValue = errors.New("unparseable value")
)

// FrameError reports a failed reading during normal operation. It wraps
// ErrShortRead, ErrUnparseableValue or the underlying I/O error, so callers
// can retry a single read with errors.Is without re-running the handshake.
type FrameError struct {
	Err      error
	Received int    // Bytes received before the error
	Field    string // Raw measurement field, if a full frame arrived
}

func (e *FrameError) Error() string {
	switch {
	case errors.Is(e.Err, ErrShortRead):
		return fmt.Sprintf("frame error: %v: got %d of %d bytes", e.Err, e.Received, FrameSize)
	case errors.Is(e.Err, ErrUnparseableValue):
		return fmt.Sprintf("frame error: %v: %q", e.Err, e.Field)
	default:
		return fmt.Sprintf("frame error: %v", e.Err)
	}
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
