package acquire

import "time"

// Reading is one acquisition result handed to consumers.
type Reading struct {
	Timestamp time.Time
	Value     float64
	Err       error // Set when the read failed; Value is then meaningless
}

// Source is anything that produces a value on demand, typically *kern.Balance.
type Source interface {
	ReadValue() (float64, error)
}

// Stage transforms a stream of readings.
type Stage func(in <-chan Reading) <-chan Reading
