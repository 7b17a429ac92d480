package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
)

const maxRoomNumberLen = 20

// Room registry messages shown to admins.
var (
	ErrInvalidRoom = errors.New("Invalid room details")
	ErrRoomExists  = errors.New("Room already exists")
	ErrRoomMissing = errors.New("Room not found")
)

// RoomStore is the persistence RoomService needs.
type RoomStore interface {
	Create(ctx context.Context, room *model.Room) error
	List(ctx context.Context) ([]model.Room, error)
	Toggle(ctx context.Context, id uint64) (*model.Room, error)
	SetAllAvailable(ctx context.Context, available bool) (int64, error)
}

// RoomService manages exam rooms.
type RoomService struct {
	rooms RoomStore
	cache Invalidator
}

func NewRoomService(rooms RoomStore, cache Invalidator) *RoomService {
	return &RoomService{rooms: rooms, cache: cache}
}

// Add registers a room, open for allocation.  The room number is trimmed
// and must be 1..20 characters; capacity must be positive.
func (s *RoomService) Add(ctx context.Context, roomNumber string, capacity int64) (model.Room, error) {
	roomNumber = strings.TrimSpace(roomNumber)
	if roomNumber == "" || len(roomNumber) > maxRoomNumberLen || capacity <= 0 || capacity > math.MaxUint32 {
		return model.Room{}, ErrInvalidRoom
	}
	room := model.Room{RoomNumber: roomNumber, Capacity: uint32(capacity), IsAvailable: true}
	if err := s.rooms.Create(ctx, &room); err != nil {
		if errors.Is(err, repository.ErrRoomExists) {
			return model.Room{}, ErrRoomExists
		}
		return model.Room{}, err
	}
	invalidate(ctx, s.cache)
	return room, nil
}

// Toggle flips availability.  Seats already allocated in the room stay; the
// room is only skipped by later runs.
func (s *RoomService) Toggle(ctx context.Context, id uint64) (model.Room, error) {
	room, err := s.rooms.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return model.Room{}, ErrRoomMissing
		}
		return model.Room{}, err
	}
	invalidate(ctx, s.cache)
	return *room, nil
}

// List returns every room ordered by room_number.
func (s *RoomService) List(ctx context.Context) ([]model.Room, error) {
	return s.rooms.List(ctx)
}

// EnableAll marks every room available and returns how many changed.
func (s *RoomService) EnableAll(ctx context.Context) (int64, error) {
	n, err := s.rooms.SetAllAvailable(ctx, true)
	if err != nil {
		return 0, err
	}
	invalidate(ctx, s.cache)
	return n, nil
}
