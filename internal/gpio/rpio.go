package gpio

import (
	"fmt"
	"sync"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// RpioDriver drives real Raspberry Pi pins through /dev/gpiomem.
// Relay boards are wired active-low: Low() energizes the relay, so a
// freshly bound output is parked High (off) before anything else happens.
type RpioDriver struct{}

// OpenRpio memory-maps the GPIO range. Fatal at boot if it fails; callers
// that want to run without hardware use NewSimDriver instead.
func OpenRpio() (*RpioDriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio mem: %w", err)
	}
	return &RpioDriver{}, nil
}

func (d *RpioDriver) Bind(pin int) (Output, error) {
	if !IsGPIOPin(pin) {
		return nil, fmt.Errorf("%w: pin %d is not a usable GPIO pin", ErrBind, pin)
	}
	p := rpio.Pin(pin)
	p.Mode(rpio.Output)
	p.High() // off
	return &rpioOutput{pin: p}, nil
}

func (d *RpioDriver) Close() error {
	return rpio.Close()
}

type rpioOutput struct {
	pin      rpio.Pin
	mu       sync.Mutex
	released bool
}

func (o *rpioOutput) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return fmt.Errorf("set pin %d: output released", o.pin)
	}
	if on {
		o.pin.Low()
	} else {
		o.pin.High()
	}
	return nil
}

func (o *rpioOutput) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return
	}
	o.pin.High() // leave the relay de-energized
	o.pin.Mode(rpio.Input)
	o.released = true
}
