package service

import (
	"context"
	"fmt"

	"smarthouse/internal/logger"
	"smarthouse/internal/models"
	"smarthouse/internal/notifier"
	"smarthouse/internal/registry"
	"smarthouse/internal/repository"
)

type RoomService struct {
	rooms    repository.RoomRepo
	devices  repository.DeviceRepo
	reg      *registry.Registry
	notif    *notifier.Notifier
	schedule Schedule
	log      *logger.Logger
}

func NewRoomService(rooms repository.RoomRepo, devices repository.DeviceRepo, reg *registry.Registry, notif *notifier.Notifier, schedule Schedule, log *logger.Logger) *RoomService {
	return &RoomService{
		rooms:    rooms,
		devices:  devices,
		reg:      reg,
		notif:    notif,
		schedule: schedule,
		log:      log,
	}
}

var _ Rooms = (*RoomService)(nil)

// Add persists a new room and mirrors it into the registry.
func (s *RoomService) Add(ctx context.Context, actor Actor, roomName string) (models.Room, error) {
	house := s.reg.House()
	rm, err := s.rooms.Create(ctx, roomName, house.HouseID)
	if err != nil {
		return models.Room{}, err
	}
	s.reg.AddRoom(*rm)

	s.notif.Broadcast(notifier.Payload{
		Event:   notifier.EventAddRoom,
		UserID:  actor.UserID,
		Message: fmt.Sprintf("%s added room %s.", actor.UserName, rm.RoomName),
		Data:    map[string]any{"room": rm},
	})
	return *rm, nil
}

// Remove deletes the room. Contained devices leave the evaluator's working
// set first, then the store cascades their rows away, then the registry
// releases their outputs while detaching the room.
func (s *RoomService) Remove(ctx context.Context, actor Actor, roomID string) error {
	room, ok := s.reg.GetRoom(roomID)
	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrRoomNotFound, roomID)
	}
	for _, d := range room.Devices {
		s.schedule.RemoveScheduledDevice(d.DeviceID)
	}

	count, err := s.rooms.Delete(ctx, roomID)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", registry.ErrRoomNotFound, roomID)
	}
	s.reg.RemoveRoom(roomID)

	s.notif.Broadcast(notifier.Payload{
		Event:   notifier.EventRemoveRoom,
		UserID:  actor.UserID,
		Message: fmt.Sprintf("%s removed room %s.", actor.UserName, room.RoomName),
		Data:    map[string]any{"roomId": roomID},
	})
	return nil
}
