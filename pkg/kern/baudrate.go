package kern

import "fmt"

// BaudRate is a transmission rate the balance's RS-232 interface can be set to.
type BaudRate int

const (
	Baud2400  BaudRate = 2400
	Baud4800  BaudRate = 4800
	Baud9600  BaudRate = 9600
	Baud19200 BaudRate = 19200
)

// DefaultBaudRate is the factory setting of the balance.
const DefaultBaudRate = Baud9600

// SupportedBaudRates lists every rate selectable on the balance, in ascending order.
var SupportedBaudRates = []BaudRate{Baud2400, Baud4800, Baud9600, Baud19200}

// Int returns the rate as a plain int, as expected by serial drivers.
func (b BaudRate) Int() int {
	return int(b)
}

// Valid reports whether b is one of SupportedBaudRates.
func (b BaudRate) Valid() bool {
	for _, r := range SupportedBaudRates {
		if b == r {
			return true
		}
	}
	return false
}

func (b BaudRate) String() string {
	return fmt.Sprintf("%d", int(b))
}

// ParseBaudRate converts an int into a supported BaudRate.
func ParseBaudRate(rate int) (BaudRate, error) {
	b := BaudRate(rate)
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBaudRate, rate)
	}
	return b, nil
}
