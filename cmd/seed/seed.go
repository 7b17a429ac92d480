package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
)

const defaultCapacity = 30

var (
	defaultFloors = []string{"G", "1", "2", "3", "4", "5"}
	roomsPerFloor = 9
)

// defaultRoomNumbers lists G01..G09, 101..109 and so on up to 509.
func defaultRoomNumbers() []string {
	out := make([]string, 0, len(defaultFloors)*roomsPerFloor)
	for _, f := range defaultFloors {
		for i := 1; i <= roomsPerFloor; i++ {
			out = append(out, fmt.Sprintf("%s%02d", f, i))
		}
	}
	return out
}

type roomCreator interface {
	Create(ctx context.Context, room *model.Room) error
}

type staffWriter interface {
	Create(ctx context.Context, username, password string, role model.Role, cost int) (uint64, error)
	SetPassword(ctx context.Context, username, password string, cost int) error
}

type seeder struct {
	rooms interface {
		roomCreator
		SetAllAvailable(ctx context.Context, available bool) (int64, error)
	}
	staff       staffWriter
	allocations interface {
		Clear(ctx context.Context, datasetID uint64) (int64, error)
	}
	datasets interface {
		Active(ctx context.Context) (model.Dataset, error)
	}
	cost int
}

// resetAllocations clears the active dataset's seats so a fresh run can
// place everyone.  Other datasets keep theirs.
func (s *seeder) resetAllocations(ctx context.Context) (model.Dataset, int64, error) {
	ds, err := s.datasets.Active(ctx)
	if err != nil {
		return ds, 0, err
	}
	n, err := s.allocations.Clear(ctx, ds.ID)
	return ds, n, err
}

// createRooms inserts the rooms that do not exist yet and returns how many
// were new.
func (s *seeder) createRooms(ctx context.Context, numbers []string, capacity uint32) (int, error) {
	if capacity == 0 {
		return 0, errors.New("capacity must be positive")
	}
	created := 0
	for _, n := range numbers {
		err := s.rooms.Create(ctx, &model.Room{RoomNumber: n, Capacity: capacity, IsAvailable: true})
		switch {
		case errors.Is(err, repository.ErrRoomExists):
			continue
		case err != nil:
			return created, fmt.Errorf("room %s: %w", n, err)
		}
		created++
	}
	return created, nil
}

type staffAccount struct {
	username string
	password string
	role     model.Role
}

// staffFromEnv reads ADMIN_USERNAME/ADMIN_PASSWORD and
// FACULTY_USERNAME/FACULTY_PASSWORD.  An account without a password is
// skipped; there is no built-in default password.
func staffFromEnv() []staffAccount {
	var out []staffAccount
	add := func(prefix, defaultUser string, role model.Role) {
		user := os.Getenv(prefix + "_USERNAME")
		if user == "" {
			user = defaultUser
		}
		pass := os.Getenv(prefix + "_PASSWORD")
		if user == "" || pass == "" {
			log.Printf("skipping %s account: set %s_USERNAME and %s_PASSWORD", role, prefix, prefix)
			return
		}
		out = append(out, staffAccount{username: user, password: pass, role: role})
	}
	add("ADMIN", "Kgkite", model.RoleAdmin)
	add("FACULTY", "", model.RoleFaculty)
	return out
}

// ensureStaff creates the account, or resets its password when the
// username is already taken.
func (s *seeder) ensureStaff(ctx context.Context, a staffAccount) error {
	_, err := s.staff.Create(ctx, a.username, a.password, a.role, s.cost)
	if errors.Is(err, repository.ErrUsernameExists) {
		if err := s.staff.SetPassword(ctx, a.username, a.password, s.cost); err != nil {
			return err
		}
		log.Printf("reset password for %s", a.username)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("created %s account %s", a.role, a.username)
	return nil
}
