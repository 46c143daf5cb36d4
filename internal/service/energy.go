package service

import (
	"context"
	"time"

	"smarthouse/internal/repository"
)

// EnergyReport summarizes a device's consumption over a period.
type EnergyReport struct {
	DeviceID  string    `json:"device_id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	WattHours float64   `json:"watt_hours"`
	LogCount  int       `json:"log_count"`
}

// EnergyService derives consumption from the control log: each on→off pair
// contributes on-time × the wattage snapshot taken when the device turned
// off. A period ending with the device still on is charged up to the
// report's end time.
type EnergyService struct {
	logs repository.LogRepo
}

func NewEnergyService(logs repository.LogRepo) *EnergyService {
	return &EnergyService{logs: logs}
}

var _ Energy = (*EnergyService)(nil)

func (s *EnergyService) Report(ctx context.Context, deviceID string, from, to time.Time) (EnergyReport, error) {
	entries, err := s.logs.List(ctx, deviceID, from, to)
	if err != nil {
		return EnergyReport{}, err
	}

	report := EnergyReport{DeviceID: deviceID, From: from, To: to, LogCount: len(entries)}

	var lastOn *time.Time
	var lastWattage float64
	for _, entry := range entries {
		switch {
		case entry.StatusChangedTo && !entry.StatusChangedFrom:
			t := entry.CreatedAt
			lastOn = &t
			lastWattage = entry.DeviceWattage
		case entry.StatusChangedFrom && !entry.StatusChangedTo && lastOn != nil:
			hours := entry.CreatedAt.Sub(*lastOn).Hours()
			report.WattHours += hours * entry.DeviceWattage
			lastOn = nil
		}
	}

	// Still on at the end of the period.
	if lastOn != nil && to.After(*lastOn) {
		report.WattHours += to.Sub(*lastOn).Hours() * lastWattage
	}
	return report, nil
}
