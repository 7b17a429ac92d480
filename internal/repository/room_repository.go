package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/exam-seating/internal/model"
)

const roomColumns = `id, room_number, capacity, is_available, created_at, updated_at`

// RoomRepo stores exam rooms.  Lists are always ordered by room_number so
// every caller, the allocation engine included, sees the same room order.
type RoomRepo struct {
	db Execer
}

// NewRoomRepo constructs a RoomRepo over a DB or a transaction.
func NewRoomRepo(db Execer) *RoomRepo {
	return &RoomRepo{db: db}
}

func scanRoom(row interface{ Scan(...any) error }, r *model.Room) error {
	return row.Scan(&r.ID, &r.RoomNumber, &r.Capacity, &r.IsAvailable, &r.CreatedAt, &r.UpdatedAt)
}

// Create inserts a room and reads it back so timestamps and the default
// availability are populated.  A taken room_number yields ErrRoomExists.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	const q = `INSERT INTO rooms (room_number, capacity, is_available) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, room.RoomNumber, room.Capacity, room.IsAvailable)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrRoomExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*room = *got
	return nil
}

// GetByID returns ErrRoomNotFound when no row matches.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	var room model.Room
	if err := scanRoom(r.db.QueryRowContext(ctx, q, id), &room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// List returns every room ordered by room_number.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	return r.list(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY room_number`)
}

// ListForShare is List with a shared lock on the rows, so a concurrent toggle
// waits until the surrounding transaction ends.  Only meaningful inside a tx.
func (r *RoomRepo) ListForShare(ctx context.Context) ([]model.Room, error) {
	return r.list(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY room_number FOR SHARE`)
}

func (r *RoomRepo) list(ctx context.Context, q string) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var room model.Room
		if err := scanRoom(rows, &room); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Toggle flips is_available and returns the updated room.
func (r *RoomRepo) Toggle(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `UPDATE rooms SET is_available = NOT is_available, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrRoomNotFound
	}
	return r.GetByID(ctx, id)
}

// SetAllAvailable sets the flag on every room and reports how many changed.
func (r *RoomRepo) SetAllAvailable(ctx context.Context, available bool) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET is_available = ? WHERE is_available <> ?`, available, available)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
