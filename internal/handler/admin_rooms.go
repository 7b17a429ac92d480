package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/model"
)

// RoomManager is the room registry as the handlers see it.
type RoomManager interface {
	Add(ctx context.Context, roomNumber string, capacity int64) (model.Room, error)
	Toggle(ctx context.Context, id uint64) (model.Room, error)
	List(ctx context.Context) ([]model.Room, error)
}

type RoomHandler struct {
	Rooms RoomManager
}

func NewRoomHandler(rooms RoomManager) *RoomHandler { return &RoomHandler{Rooms: rooms} }

type addRoomReq struct {
	RoomNumber string       `json:"room_number"`
	Capacity   roomCapacity `json:"capacity"`
}

// roomCapacity accepts 30 as well as "30"; the dashboard form posts the
// input's string value.  Range checks stay with the room service.
type roomCapacity int64

func (c *roomCapacity) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	v, err := json.Number(raw).Int64()
	if err != nil {
		return err
	}
	*c = roomCapacity(v)
	return nil
}

// List: GET /api/admin/rooms/
func (h *RoomHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	rooms, err := h.Rooms.List(ctx)
	if err != nil {
		return failErr(c, "list rooms", err)
	}
	out := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomView(r))
	}
	return ok(c, http.StatusOK, "", out)
}

// Add: POST /api/admin/rooms/add/
func (h *RoomHandler) Add(c echo.Context) error {
	var req addRoomReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid room details")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	room, err := h.Rooms.Add(ctx, req.RoomNumber, int64(req.Capacity))
	if err != nil {
		return failErr(c, "add room", err)
	}
	return ok(c, http.StatusCreated, "Room added successfully", toRoomView(room))
}

// Toggle: POST /api/admin/rooms/:id/toggle/
func (h *RoomHandler) Toggle(c echo.Context) error {
	id, valid := parseID(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid room id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	room, err := h.Rooms.Toggle(ctx, id)
	if err != nil {
		return failErr(c, "toggle room", err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"id": room.ID, "is_available": room.IsAvailable})
}
