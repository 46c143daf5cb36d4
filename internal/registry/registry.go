package registry

import (
	"errors"
	"fmt"
	"sync"

	"smarthouse/internal/gpio"
	"smarthouse/internal/logger"
	"smarthouse/internal/models"
)

// Typed failures surfaced to callers. NotFound outcomes are reported through
// boolean lookups instead, so these fire only on genuine misuse or hardware
// trouble.
var (
	ErrDeviceNotFound = errors.New("registry: device not found")
	ErrRoomNotFound   = errors.New("registry: room not found")
	ErrOutputNotBound = errors.New("registry: device has no live output")
	ErrPinConflict    = errors.New("registry: pin already in use")
)

// Registry is the in-process source of truth for the house tree and the
// live GPIO bindings. It exclusively owns the device-id → output mapping;
// every structural mutation and every hardware switch is serialized on one
// mutex so a manual switch and a scheduled switch can never interleave on
// the same device.
type Registry struct {
	mu      sync.Mutex
	driver  gpio.Driver
	log     *logger.Logger
	house   *models.House
	outputs map[string]gpio.Output // deviceID → live handle
	pins    map[int]string         // live pin → deviceID
}

func New(driver gpio.Driver, log *logger.Logger) *Registry {
	return &Registry{
		driver:  driver,
		log:     log,
		outputs: make(map[string]gpio.Output),
		pins:    make(map[int]string),
	}
}

// Load replaces the registry content from a house snapshot and binds an
// output for every device. All-or-nothing: on any bind failure every output
// bound so far is released and the error is returned (fatal at boot).
func (r *Registry) Load(house *models.House) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	outputs := make(map[string]gpio.Output)
	pins := make(map[int]string)
	for _, room := range house.Rooms {
		for _, d := range room.Devices {
			if owner, taken := pins[d.PinNumber]; taken {
				releaseAll(outputs)
				return fmt.Errorf("%w: pin %d claimed by %s and %s", ErrPinConflict, d.PinNumber, owner, d.DeviceID)
			}
			out, err := r.driver.Bind(d.PinNumber)
			if err != nil {
				releaseAll(outputs)
				return fmt.Errorf("bind device %s pin %d: %w", d.DeviceID, d.PinNumber, err)
			}
			outputs[d.DeviceID] = out
			pins[d.PinNumber] = d.DeviceID
		}
	}

	// Drive outputs to the persisted status so hardware matches the record.
	for _, room := range house.Rooms {
		for _, d := range room.Devices {
			if err := outputs[d.DeviceID].Set(d.Status); err != nil {
				releaseAll(outputs)
				return fmt.Errorf("restore device %s level: %w", d.DeviceID, err)
			}
		}
	}

	r.house = house
	r.outputs = outputs
	r.pins = pins
	r.log.Infow("registry_loaded", "rooms", len(house.Rooms), "devices", len(outputs))
	return nil
}

// AddRoom attaches a room to the house tree.
func (r *Registry) AddRoom(room models.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room.Devices == nil {
		room.Devices = []models.Device{}
	}
	r.house.Rooms = append(r.house.Rooms, room)
}

// RemoveRoom releases every contained device's output, then detaches the
// room. Reports whether the room existed.
func (r *Registry) RemoveRoom(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, room := range r.house.Rooms {
		if room.RoomID != roomID {
			continue
		}
		for _, d := range room.Devices {
			r.releaseLocked(d.DeviceID, d.PinNumber)
		}
		r.house.Rooms = append(r.house.Rooms[:i], r.house.Rooms[i+1:]...)
		return true
	}
	return false
}

// AddDevice binds a new output for the device's pin and inserts it into its
// room. The pin conflict check is re-validated here even though the control
// surface checks first.
func (r *Registry) AddDevice(d models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.pins[d.PinNumber]; taken {
		return fmt.Errorf("%w: pin %d bound to device %s", ErrPinConflict, d.PinNumber, owner)
	}
	room := r.roomLocked(d.RoomID)
	if room == nil {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, d.RoomID)
	}
	out, err := r.driver.Bind(d.PinNumber)
	if err != nil {
		return fmt.Errorf("bind device %s pin %d: %w", d.DeviceID, d.PinNumber, err)
	}
	r.outputs[d.DeviceID] = out
	r.pins[d.PinNumber] = d.DeviceID
	room.Devices = append(room.Devices, d)
	return nil
}

// RemoveDevice releases the handle and drops the device from its room.
// No-op when the id is unknown.
func (r *Registry) RemoveDevice(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.house.Rooms {
		room := &r.house.Rooms[i]
		for j, d := range room.Devices {
			if d.DeviceID != deviceID {
				continue
			}
			r.releaseLocked(d.DeviceID, d.PinNumber)
			room.Devices = append(room.Devices[:j], room.Devices[j+1:]...)
			return
		}
	}
}

// GetRoom returns a copy of the room. Absence is not an error.
func (r *Registry) GetRoom(roomID string) (models.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room := r.roomLocked(roomID); room != nil {
		return copyRoom(*room), true
	}
	return models.Room{}, false
}

// GetDevice returns a copy of the device record. Absence is not an error.
func (r *Registry) GetDevice(deviceID string) (models.Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d := r.deviceLocked(deviceID); d != nil {
		return *d, true
	}
	return models.Device{}, false
}

// UpdateDevice replaces the stored record for an existing device, moving it
// between rooms and rebinding the output when the pin changed.
func (r *Registry) UpdateDevice(d models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.deviceLocked(d.DeviceID)
	if cur == nil {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, d.DeviceID)
	}
	if d.PinNumber != cur.PinNumber {
		if owner, taken := r.pins[d.PinNumber]; taken {
			return fmt.Errorf("%w: pin %d bound to device %s", ErrPinConflict, d.PinNumber, owner)
		}
		out, err := r.driver.Bind(d.PinNumber)
		if err != nil {
			return fmt.Errorf("rebind device %s pin %d: %w", d.DeviceID, d.PinNumber, err)
		}
		r.releaseLocked(cur.DeviceID, cur.PinNumber)
		r.outputs[d.DeviceID] = out
		r.pins[d.PinNumber] = d.DeviceID
		if err := out.Set(d.Status); err != nil {
			return fmt.Errorf("restore device %s level: %w", d.DeviceID, err)
		}
	}
	*cur = d
	return nil
}

// Switch sets the bound output's level. It touches hardware only; the
// persisted log and broadcast are the caller's job.
func (r *Registry) Switch(deviceID string, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.switchLocked(deviceID, on)
}

// Transition performs one full status transition under the registry's
// serialization domain: set the output, run persist (the store round trip),
// and update the recorded status. When the recorded status already matches
// desiredOn nothing happens (applied=false). When persist fails the output
// is reverted, so log, record, and hardware never drift apart.
func (r *Registry) Transition(deviceID string, desiredOn bool, persist func(d models.Device) error) (models.Device, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.deviceLocked(deviceID)
	if d == nil {
		return models.Device{}, false, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if d.Status == desiredOn {
		return *d, false, nil
	}
	if err := r.switchLocked(deviceID, desiredOn); err != nil {
		return models.Device{}, false, err
	}
	if err := persist(*d); err != nil {
		if revertErr := r.switchLocked(deviceID, d.Status); revertErr != nil {
			r.log.Errorw("transition_revert_failed", "device_id", deviceID, "err", revertErr)
		}
		return models.Device{}, false, err
	}
	d.Status = desiredOn
	return *d, true, nil
}

// ScheduledDevices returns a snapshot of all devices with is_scheduled set.
func (r *Registry) ScheduledDevices() []models.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Device, 0, 8)
	for _, room := range r.house.Rooms {
		for _, d := range room.Devices {
			if d.IsScheduled {
				out = append(out, d)
			}
		}
	}
	return out
}

// House returns a deep copy of the current tree.
func (r *Registry) House() models.House {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := *r.house
	h.Rooms = make([]models.Room, len(r.house.Rooms))
	for i, room := range r.house.Rooms {
		h.Rooms[i] = copyRoom(room)
	}
	return h
}

// BoundPins returns the pins currently owned by live devices.
func (r *Registry) BoundPins() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.pins))
	for pin := range r.pins {
		out = append(out, pin)
	}
	return out
}

// Shutdown releases every live output. Safe to call more than once.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	releaseAll(r.outputs)
	r.outputs = make(map[string]gpio.Output)
	r.pins = make(map[int]string)
}

// ---- internal, caller holds r.mu ----

func (r *Registry) switchLocked(deviceID string, on bool) error {
	if r.deviceLocked(deviceID) == nil {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	out, ok := r.outputs[deviceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOutputNotBound, deviceID)
	}
	if err := out.Set(on); err != nil {
		return fmt.Errorf("set device %s output: %w", deviceID, err)
	}
	return nil
}

func (r *Registry) roomLocked(roomID string) *models.Room {
	for i := range r.house.Rooms {
		if r.house.Rooms[i].RoomID == roomID {
			return &r.house.Rooms[i]
		}
	}
	return nil
}

func (r *Registry) deviceLocked(deviceID string) *models.Device {
	for i := range r.house.Rooms {
		room := &r.house.Rooms[i]
		for j := range room.Devices {
			if room.Devices[j].DeviceID == deviceID {
				return &room.Devices[j]
			}
		}
	}
	return nil
}

func (r *Registry) releaseLocked(deviceID string, pin int) {
	if out, ok := r.outputs[deviceID]; ok {
		out.Release() // idempotent
		delete(r.outputs, deviceID)
	}
	if r.pins[pin] == deviceID {
		delete(r.pins, pin)
	}
}

func releaseAll(outputs map[string]gpio.Output) {
	for _, out := range outputs {
		out.Release()
	}
}

func copyRoom(room models.Room) models.Room {
	cp := room
	cp.Devices = append([]models.Device(nil), room.Devices...)
	return cp
}
