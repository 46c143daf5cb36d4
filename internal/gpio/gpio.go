package gpio

import "errors"

// Driver binds physical pins to live outputs. One driver instance is opened
// at startup and shared by the registry; Close releases the underlying
// hardware mapping.
type Driver interface {
	// Bind claims a BCM pin as an output and returns its handle.
	Bind(pin int) (Output, error)
	// Close releases the driver. Bound outputs must be released first.
	Close() error
}

// Output is the live binding between a device record and a physical pin.
type Output interface {
	// Set drives the output level: true = on, false = off.
	Set(on bool) error
	// Release frees the pin. Releasing twice is a no-op.
	Release()
}

// ErrBind reports a failed pin binding (hardware init failure).
var ErrBind = errors.New("gpio: bind failed")
