package kern

import (
	"fmt"
	"strconv"
	"strings"
)

// FrameSize is the length of one data transfer emitted by the balance.
const FrameSize = 18

// Layout locates the measurement field inside a frame.
type Layout struct {
	Offset int
	Length int
}

// DefaultLayout is the measurement field of the FKB/KB/DS data transfer:
// bytes 4 to 12, right aligned, space padded.
var DefaultLayout = Layout{Offset: 4, Length: 9}

func (l Layout) valid() bool {
	return l.Offset >= 0 && l.Length > 0 && l.Offset+l.Length <= FrameSize
}

// DecodeFrame extracts the measurement field from frame and parses it as a
// decimal number with a period separator. Errors are *FrameError.
func DecodeFrame(frame []byte, layout Layout) (float64, error) {
	if len(frame) < FrameSize {
		return 0, &FrameError{Err: ErrShortRead, Received: len(frame)}
	}
	if !layout.valid() {
		return 0, &FrameError{Err: fmt.Errorf("invalid layout %+v", layout), Received: len(frame)}
	}

	field := string(frame[layout.Offset : layout.Offset+layout.Length])
	value, ok := parseField(field)
	if !ok {
		return 0, &FrameError{Err: ErrUnparseableValue, Received: len(frame), Field: field}
	}

	return value, nil
}

// parseField accepts an optional sign, optional padding, and digits with at
// most one period. Anything else (blank fields, overload markers, exponents)
// is rejected.
func parseField(field string) (float64, bool) {
	s := strings.TrimSpace(field)

	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign = s[:1]
		s = strings.TrimLeft(s[1:], " ")
	}

	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return 0, false
		}
	}
	if digits == 0 || dots > 1 {
		return 0, false
	}

	value, err := strconv.ParseFloat(sign+s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// EncodeFrame builds a frame in the balance's layout: four status bytes,
// the value right aligned in nine characters with three decimals, a space,
// a two character unit and CR LF.
func EncodeFrame(value float64, unit string) []byte {
	field := fmt.Sprintf("%9.3f", value)
	if len(field) > DefaultLayout.Length {
		field = strings.Repeat("o", DefaultLayout.Length) // overload
	}
	unit = fmt.Sprintf("%-2s", unit)[:2]

	frame := make([]byte, 0, FrameSize)
	frame = append(frame, "    "...)
	frame = append(frame, field...)
	frame = append(frame, ' ')
	frame = append(frame, unit...)
	frame = append(frame, '\r', '\n')
	return frame
}

// isPrintable reports whether every byte is printable ASCII or line
// formatting. A balance read at the wrong baud rate yields framing garbage
// with the high bit set or control bytes.
func isPrintable(b []byte) bool {
	for _, c := range b {
		switch {
		case c == '\r' || c == '\n' || c == '\t':
		case c >= 0x20 && c < 0x7f:
		default:
			return false
		}
	}
	return true
}
