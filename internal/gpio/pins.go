package gpio

// Header pin types on the 40-pin Raspberry Pi header.
const (
	PinTypePower  = "POWER"
	PinTypeGPIO   = "GPIO"
	PinTypeGround = "GROUND"
)

// HeaderPin describes one physical pin of the 40-pin header.
// GPIONumber is the BCM number and is meaningful only for Type == GPIO.
type HeaderPin struct {
	HeaderPinNumber int    `json:"header_pin_number"`
	GPIONumber      int    `json:"gpio_pin_number,omitempty"`
	Type            string `json:"type"`
	Voltage         string `json:"voltage,omitempty"` // "3v3" or "5v" for power pins
}

// HeaderPins is the physical layout of the 40-pin header, in header order.
var HeaderPins = []HeaderPin{
	{HeaderPinNumber: 1, Type: PinTypePower, Voltage: "3v3"},
	{HeaderPinNumber: 2, Type: PinTypePower, Voltage: "5v"},
	{HeaderPinNumber: 3, Type: PinTypeGPIO, GPIONumber: 2},
	{HeaderPinNumber: 4, Type: PinTypePower, Voltage: "5v"},
	{HeaderPinNumber: 5, Type: PinTypeGPIO, GPIONumber: 3},
	{HeaderPinNumber: 6, Type: PinTypeGround},
	{HeaderPinNumber: 7, Type: PinTypeGPIO, GPIONumber: 4},
	{HeaderPinNumber: 8, Type: PinTypeGPIO, GPIONumber: 14},
	{HeaderPinNumber: 9, Type: PinTypeGround},
	{HeaderPinNumber: 10, Type: PinTypeGPIO, GPIONumber: 15},
	{HeaderPinNumber: 11, Type: PinTypeGPIO, GPIONumber: 17},
	{HeaderPinNumber: 12, Type: PinTypeGPIO, GPIONumber: 18},
	{HeaderPinNumber: 13, Type: PinTypeGPIO, GPIONumber: 27},
	{HeaderPinNumber: 14, Type: PinTypeGround},
	{HeaderPinNumber: 15, Type: PinTypeGPIO, GPIONumber: 22},
	{HeaderPinNumber: 16, Type: PinTypeGPIO, GPIONumber: 23},
	{HeaderPinNumber: 17, Type: PinTypePower, Voltage: "3v3"},
	{HeaderPinNumber: 18, Type: PinTypeGPIO, GPIONumber: 24},
	{HeaderPinNumber: 19, Type: PinTypeGPIO, GPIONumber: 10},
	{HeaderPinNumber: 20, Type: PinTypeGround},
	{HeaderPinNumber: 21, Type: PinTypeGPIO, GPIONumber: 9},
	{HeaderPinNumber: 22, Type: PinTypeGPIO, GPIONumber: 25},
	{HeaderPinNumber: 23, Type: PinTypeGPIO, GPIONumber: 11},
	{HeaderPinNumber: 24, Type: PinTypeGPIO, GPIONumber: 8},
	{HeaderPinNumber: 25, Type: PinTypeGround},
	{HeaderPinNumber: 26, Type: PinTypeGPIO, GPIONumber: 7},
	{HeaderPinNumber: 27, Type: PinTypeGPIO, GPIONumber: 0},
	{HeaderPinNumber: 28, Type: PinTypeGPIO, GPIONumber: 1},
	{HeaderPinNumber: 29, Type: PinTypeGPIO, GPIONumber: 5},
	{HeaderPinNumber: 30, Type: PinTypeGround},
	{HeaderPinNumber: 31, Type: PinTypeGPIO, GPIONumber: 6},
	{HeaderPinNumber: 32, Type: PinTypeGPIO, GPIONumber: 12},
	{HeaderPinNumber: 33, Type: PinTypeGPIO, GPIONumber: 13},
	{HeaderPinNumber: 34, Type: PinTypeGround},
	{HeaderPinNumber: 35, Type: PinTypeGPIO, GPIONumber: 19},
	{HeaderPinNumber: 36, Type: PinTypeGPIO, GPIONumber: 16},
	{HeaderPinNumber: 37, Type: PinTypeGPIO, GPIONumber: 26},
	{HeaderPinNumber: 38, Type: PinTypeGPIO, GPIONumber: 20},
	{HeaderPinNumber: 39, Type: PinTypeGround},
	{HeaderPinNumber: 40, Type: PinTypeGPIO, GPIONumber: 21},
}

// IsGPIOPin reports whether the BCM pin number maps to a usable GPIO pin
// on the header (as opposed to power/ground or out-of-range numbers).
func IsGPIOPin(pin int) bool {
	for _, hp := range HeaderPins {
		if hp.Type == PinTypeGPIO && hp.GPIONumber == pin {
			return true
		}
	}
	return false
}

// GPIOPins returns the BCM numbers of all usable GPIO pins in header order.
func GPIOPins() []int {
	out := make([]int, 0, len(HeaderPins))
	for _, hp := range HeaderPins {
		if hp.Type == PinTypeGPIO {
			out = append(out, hp.GPIONumber)
		}
	}
	return out
}
