package service

import (
	"context"
	"fmt"
	"time"

	"smarthouse/internal/gpio"
	"smarthouse/internal/logger"
	"smarthouse/internal/models"
	"smarthouse/internal/notifier"
	"smarthouse/internal/registry"
	"smarthouse/internal/repository"
)

type DeviceService struct {
	devices  repository.DeviceRepo
	logs     repository.LogRepo
	reg      *registry.Registry
	notif    *notifier.Notifier
	schedule Schedule
	log      *logger.Logger
	now      func() time.Time
}

func NewDeviceService(devices repository.DeviceRepo, logs repository.LogRepo, reg *registry.Registry, notif *notifier.Notifier, schedule Schedule, log *logger.Logger) *DeviceService {
	return &DeviceService{
		devices:  devices,
		logs:     logs,
		reg:      reg,
		notif:    notif,
		schedule: schedule,
		log:      log,
		now:      time.Now,
	}
}

var _ Devices = (*DeviceService)(nil)

// Add persists a new device, binds its output and announces it. If the
// hardware bind fails after the row was written, the row is removed again
// so store and registry stay in step.
func (s *DeviceService) Add(ctx context.Context, actor Actor, roomID, deviceName string, pinNumber int, wattage float64) (models.Device, error) {
	d, err := s.devices.Create(ctx, deviceName, pinNumber, roomID, wattage)
	if err != nil {
		return models.Device{}, err
	}
	if err := s.reg.AddDevice(*d); err != nil {
		if _, delErr := s.devices.Delete(ctx, d.DeviceID); delErr != nil {
			s.log.Errorw("device_add_compensation_failed", "device_id", d.DeviceID, "err", delErr)
		}
		return models.Device{}, err
	}

	s.notif.Broadcast(notifier.Payload{
		Event:   notifier.EventAddDevice,
		UserID:  actor.UserID,
		Message: fmt.Sprintf("%s added device %s.", actor.UserName, d.DeviceName),
		Data:    map[string]any{"device": d},
	})
	return *d, nil
}

// Switch applies a user-initiated transition. When the recorded status
// already matches, nothing is switched, logged or broadcast (applied is
// false). Hardware failures surface to the caller; they are never fatal.
func (s *DeviceService) Switch(ctx context.Context, actor Actor, deviceID string, toStatus bool) (models.Device, bool, error) {
	updated, applied, err := s.reg.Transition(deviceID, toStatus, func(cur models.Device) error {
		count, err := s.devices.Switch(ctx, cur.DeviceID, cur.Status, toStatus, actor.UserID, cur.Wattage)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("device %s: no persisted rows updated", cur.DeviceID)
		}
		return nil
	})
	if err != nil {
		return models.Device{}, false, err
	}
	if !applied {
		return updated, false, nil
	}

	verb := "off"
	if toStatus {
		verb = "on"
	}
	s.notif.Broadcast(notifier.Payload{
		Event:   notifier.EventSwitchDevice,
		UserID:  actor.UserID,
		Message: fmt.Sprintf("%s turned %s %s.", actor.UserName, verb, updated.DeviceName),
		Data:    map[string]any{"deviceId": updated.DeviceID, "state": toStatus},
	})
	return updated, true, nil
}

// Configure rewrites a device's settings. When scheduling is enabled the
// status is recomputed from the schedule window at configure time, so the
// device lands in the state the evaluator would drive it to; a control-log
// entry is written only when the stored status actually changed.
func (s *DeviceService) Configure(ctx context.Context, actor Actor, p ConfigureDeviceParams) (models.Device, bool, error) {
	cur, ok := s.reg.GetDevice(p.DeviceID)
	if !ok {
		return models.Device{}, false, fmt.Errorf("%w: %s", registry.ErrDeviceNotFound, p.DeviceID)
	}

	status := p.Status
	if p.IsScheduled {
		now := s.now()
		due, err := windowContains(p.StartTime, p.OffTime, now)
		if err != nil {
			return models.Device{}, false, err
		}
		status = due && scheduledToday(p.DaysScheduled, now.Format("Mon"))
	}

	count, statusChanged, err := s.devices.Configure(ctx, repository.ConfigureParams{
		DeviceID:      p.DeviceID,
		DeviceName:    p.DeviceName,
		PinNumber:     p.PinNumber,
		Status:        status,
		IsDefault:     p.IsDefault,
		IsScheduled:   p.IsScheduled,
		DaysScheduled: p.DaysScheduled,
		StartTime:     p.StartTime,
		OffTime:       p.OffTime,
		Wattage:       p.Wattage,
		UserID:        actor.UserID,
	})
	if err != nil {
		return models.Device{}, false, err
	}
	if count == 0 {
		return models.Device{}, false, fmt.Errorf("%w: %s", registry.ErrDeviceNotFound, p.DeviceID)
	}

	updated := cur
	updated.DeviceName = p.DeviceName
	updated.PinNumber = p.PinNumber
	updated.Status = status
	updated.IsDefault = p.IsDefault
	updated.IsScheduled = p.IsScheduled
	updated.DaysScheduled = p.DaysScheduled
	updated.StartTime = p.StartTime
	updated.OffTime = p.OffTime
	updated.ScheduledBy = actor.UserID
	updated.Wattage = p.Wattage
	if !p.IsScheduled {
		updated.DaysScheduled, updated.StartTime, updated.OffTime = "", "", ""
	}

	if err := s.reg.UpdateDevice(updated); err != nil {
		return models.Device{}, false, err
	}
	if statusChanged {
		if err := s.reg.Switch(updated.DeviceID, status); err != nil {
			s.log.Errorw("configure_switch_failed", "device_id", updated.DeviceID, "err", err)
		}
	}

	// Keep the evaluator's working set in step with the flag.
	if updated.IsScheduled {
		s.schedule.ScheduleDevice(updated)
	} else {
		s.schedule.RemoveScheduledDevice(updated.DeviceID)
	}

	s.notif.Broadcast(notifier.Payload{
		Event:   notifier.EventConfigureDevice,
		UserID:  actor.UserID,
		Message: fmt.Sprintf("%s configured device %s.", actor.UserName, updated.DeviceName),
		Data:    map[string]any{"device": updated},
	})
	return updated, statusChanged, nil
}

// Remove deletes the device, releases its output and drops it from the
// evaluator's working set. Unknown ids are a no-op in the registry but
// reported by the store's row count.
func (s *DeviceService) Remove(ctx context.Context, actor Actor, roomID, deviceID string) error {
	count, err := s.devices.Delete(ctx, deviceID)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", registry.ErrDeviceNotFound, deviceID)
	}

	s.reg.RemoveDevice(deviceID)
	s.schedule.RemoveScheduledDevice(deviceID)

	s.notif.Broadcast(notifier.Payload{
		Event:   notifier.EventRemoveDevice,
		UserID:  actor.UserID,
		Message: fmt.Sprintf("%s removed a device.", actor.UserName),
		Data:    map[string]any{"deviceId": deviceID, "roomId": roomID},
	})
	return nil
}

// AvailablePins returns the header pins whose GPIO numbers are not bound
// by a live device, plus the power/ground pins for board layout display.
func (s *DeviceService) AvailablePins() []gpio.HeaderPin {
	bound := make(map[int]bool)
	for _, pin := range s.reg.BoundPins() {
		bound[pin] = true
	}
	out := make([]gpio.HeaderPin, 0, len(gpio.HeaderPins))
	for _, hp := range gpio.HeaderPins {
		if hp.Type == gpio.PinTypeGPIO && bound[hp.GPIONumber] {
			continue
		}
		out = append(out, hp)
	}
	return out
}

// Logs lists control-log entries for a device within [from, to].
func (s *DeviceService) Logs(ctx context.Context, deviceID string, from, to time.Time) ([]models.DeviceControlLog, error) {
	return s.logs.List(ctx, deviceID, from, to)
}
