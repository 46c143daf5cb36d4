package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTime reports an unparseable "HH:MM" schedule field. Devices
// carrying one are skipped by the evaluator rather than failing the tick.
var ErrMalformedTime = errors.New("malformed schedule time")

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	return hour*60 + minute, nil
}

// windowContains reports whether now falls inside the [start, off] window,
// at minute resolution. A window with start > off spans midnight: the
// device is on from start until off the next day.
func windowContains(startTime, offTime string, now time.Time) (bool, error) {
	start, err := parseClock(startTime)
	if err != nil {
		return false, err
	}
	off, err := parseClock(offTime)
	if err != nil {
		return false, err
	}
	current := now.Hour()*60 + now.Minute()

	if start <= off {
		return start <= current && current <= off, nil
	}
	// Overnight span
	return current >= start || current <= off, nil
}

// scheduledToday reports whether the weekday abbreviation (e.g. "Wed")
// appears in the free-text day list. Case-insensitive substring match;
// an empty list schedules nothing.
func scheduledToday(daysScheduled string, weekday string) bool {
	if daysScheduled == "" {
		return false
	}
	return strings.Contains(strings.ToLower(daysScheduled), strings.ToLower(weekday))
}
