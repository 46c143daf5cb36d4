package gpio

import (
	"fmt"
	"sync"
)

// SimDriver is an in-memory stand-in for real pins, used when the process
// runs off-board (development, tests, CI). Levels are tracked so callers
// can still observe the effect of Set.
type SimDriver struct {
	mu     sync.Mutex
	levels map[int]bool
}

func NewSimDriver() *SimDriver {
	return &SimDriver{levels: make(map[int]bool)}
}

func (d *SimDriver) Bind(pin int) (Output, error) {
	if !IsGPIOPin(pin) {
		return nil, fmt.Errorf("%w: pin %d is not a usable GPIO pin", ErrBind, pin)
	}
	d.mu.Lock()
	d.levels[pin] = false
	d.mu.Unlock()
	return &simOutput{driver: d, pin: pin}, nil
}

func (d *SimDriver) Close() error { return nil }

// Level reports the last level set on a pin.
func (d *SimDriver) Level(pin int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.levels[pin]
}

type simOutput struct {
	driver   *SimDriver
	pin      int
	mu       sync.Mutex
	released bool
}

func (o *simOutput) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return fmt.Errorf("set pin %d: output released", o.pin)
	}
	o.driver.mu.Lock()
	o.driver.levels[o.pin] = on
	o.driver.mu.Unlock()
	return nil
}

func (o *simOutput) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return
	}
	o.driver.mu.Lock()
	o.driver.levels[o.pin] = false
	o.driver.mu.Unlock()
	o.released = true
}
