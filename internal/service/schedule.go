package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smarthouse/internal/logger"
	"smarthouse/internal/models"
	"smarthouse/internal/notifier"
	"smarthouse/internal/registry"
	"smarthouse/internal/repository"
)

// DefaultTick is the evaluation interval; scheduling resolution is one
// minute, so a 60s tick cannot miss a window edge.
const DefaultTick = 60 * time.Second

// scheduleAssistantTag marks a transition as automated; it is appended to
// the identity of whoever configured the schedule.
const scheduleAssistantTag = "Schedule Assistant"

// ScheduleService keeps the working set of schedule-controlled devices and
// runs the background evaluation loop. The loop exists only while the set
// is non-empty: Stopped ⇄ Running.
//
// The set holds device ids, not device copies; each pass resolves them
// against the registry so evaluation always sees the latest schedule
// fields and recorded status.
type ScheduleService struct {
	reg     *registry.Registry
	devices repository.DeviceRepo
	notif   *notifier.Notifier
	tick    time.Duration
	log     *logger.Logger
	now     func() time.Time // swapped in tests

	mu     sync.Mutex
	watch  map[string]struct{}
	cancel context.CancelFunc // nil while stopped
	done   chan struct{}      // closed when the most recent loop has exited
}

func NewScheduleService(reg *registry.Registry, devices repository.DeviceRepo, notif *notifier.Notifier, tick time.Duration, log *logger.Logger) *ScheduleService {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &ScheduleService{
		reg:     reg,
		devices: devices,
		notif:   notif,
		tick:    tick,
		log:     log,
		now:     time.Now,
		watch:   make(map[string]struct{}),
	}
}

// ScheduleDevice upserts the device into the working set and makes sure
// the loop is running. An already-running loop is left alone: the next
// tick picks the device up.
func (s *ScheduleService) ScheduleDevice(d models.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watch[d.DeviceID] = struct{}{}
	if s.cancel == nil {
		s.startLocked()
	}
}

// RemoveScheduledDevice drops the device from the working set and stops
// the loop once the set is empty.
func (s *ScheduleService) RemoveScheduledDevice(deviceID string) {
	s.mu.Lock()
	delete(s.watch, deviceID)
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	if len(s.watch) == 0 && s.cancel != nil {
		cancel, done = s.cancel, s.done
		s.cancel = nil
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Running reports whether the evaluation loop is active.
func (s *ScheduleService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stop forces the Stopped state, cancelling any in-flight wait. It returns
// only after the loop goroutine has exited, so a tick can never fire
// against a torn-down registry.
func (s *ScheduleService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// startLocked launches the loop goroutine. If a previous loop is still
// tearing down, the new one waits for it first: two loops are never active
// at once. Caller holds s.mu.
func (s *ScheduleService) startLocked() {
	prev := s.done
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		s.run(ctx)
	}()
}

func (s *ScheduleService) run(ctx context.Context) {
	s.log.Infow("schedule_loop_started", "tick", s.tick)
	// Immediate pass on Stopped→Running so a freshly scheduled device is
	// not left waiting a full interval.
	s.evaluate(ctx)

	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("schedule_loop_stopped")
			return
		case <-t.C:
			s.evaluate(ctx)
		}
	}
}

// evaluate runs one pass over the working set. A single device's failure
// is logged and skipped; it must not abort the rest of the pass.
func (s *ScheduleService) evaluate(ctx context.Context) {
	now := s.now()
	today := now.Format("Mon")

	for _, id := range s.watchedIDs() {
		d, ok := s.reg.GetDevice(id)
		if !ok || !d.IsScheduled {
			continue
		}
		if !scheduledToday(d.DaysScheduled, today) {
			continue
		}
		desired, err := windowContains(d.StartTime, d.OffTime, now)
		if err != nil {
			// Malformed times: treat as not-due rather than raising.
			s.log.Debugw("schedule_window_skipped", "device_id", id, "err", err)
			continue
		}
		if d.Status == desired {
			continue
		}
		s.switchScheduled(ctx, d, desired)
	}
}

// switchScheduled applies one schedule-driven transition: hardware, then
// the persisted log inside the registry's serialization domain, then the
// broadcast.
func (s *ScheduleService) switchScheduled(ctx context.Context, d models.Device, desired bool) {
	actor := scheduleActor(d.ScheduledBy)
	updated, applied, err := s.reg.Transition(d.DeviceID, desired, func(cur models.Device) error {
		count, err := s.devices.Switch(ctx, cur.DeviceID, cur.Status, desired, actor, cur.Wattage)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("device %s: no persisted rows updated", cur.DeviceID)
		}
		return nil
	})
	if err != nil {
		s.log.Errorw("schedule_switch_failed", "device_id", d.DeviceID, "err", err)
		return
	}
	if !applied {
		return
	}

	verb := "off"
	if desired {
		verb = "on"
	}
	s.notif.Broadcast(notifier.Payload{
		Event:   notifier.EventScheduledSwitch,
		UserID:  actor,
		Message: fmt.Sprintf("Schedule Assistant turned %s %s.", verb, updated.DeviceName),
		Data:    map[string]any{"deviceId": updated.DeviceID, "state": desired},
	})
}

func (s *ScheduleService) watchedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.watch))
	for id := range s.watch {
		ids = append(ids, id)
	}
	return ids
}

func scheduleActor(scheduledBy string) string {
	return scheduledBy + "|-|" + scheduleAssistantTag
}
