package kern

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Port is the subset of a serial port the balance driver needs.
// go.bug.st/serial.Port satisfies it.
type Port interface {
	io.ReadCloser
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
}

// Opener opens a named port at the given baud rate.
type Opener func(name string, baudRate int) (Port, error)

// OpenSerial opens a real serial port with the balance's line settings
// (8 data bits, no parity, 1 stop bit).
func OpenSerial(name string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return port, nil
}

// PortInfo describes a serial port available on this machine.
type PortInfo struct {
	Name         string
	Description  string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// Ports returns the serial ports currently present. It is meant to be called
// when the user picks a port, so hot-plugged adapters show up.
func Ports() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		result := make([]PortInfo, 0, len(details))
		for _, d := range details {
			info := PortInfo{
				Name:         d.Name,
				Description:  d.Name,
				IsUSB:        d.IsUSB,
				VID:          d.VID,
				PID:          d.PID,
				SerialNumber: d.SerialNumber,
			}
			if d.IsUSB {
				if d.Product != "" {
					info.Description = d.Product
				} else {
					info.Description = fmt.Sprintf("USB %s:%s", d.VID, d.PID)
				}
			}
			result = append(result, info)
		}
		return result, nil
	}

	// Enumerator is unavailable on some platforms, fall back to plain names
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]PortInfo, 0, len(names))
	for _, name := range names {
		result = append(result, PortInfo{Name: name, Description: name})
	}
	return result, nil
}
