package kern

// Device defines the interface for a balance driver (real or simulated port).
type Device interface {
	Connect(port string, baudRate BaudRate) (bool, string)
	ReadValue() (float64, error)
	Disconnect()
	IsConnected() bool
}

// Ensure Balance implements Device.
var _ Device = (*Balance)(nil)

// Ensure the simulated port satisfies Port.
var _ Port = (*simPort)(nil)
