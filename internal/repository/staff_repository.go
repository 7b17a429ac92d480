package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/utils"
)

type StaffRepo struct{ DB Execer }

func NewStaffRepo(db Execer) *StaffRepo { return &StaffRepo{DB: db} }

// normalizeUsername keeps usernames case-insensitive.
func normalizeUsername(u string) string { return strings.ToLower(strings.TrimSpace(u)) }

// Create hashes the password and inserts the account, returning its ID.
func (r *StaffRepo) Create(ctx context.Context, username, password string, role model.Role, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO staff_accounts (username, password_hash, role) VALUES (?,?,?)",
		normalizeUsername(username), hash, string(role))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SetPassword replaces the hash and reactivates the account.
func (r *StaffRepo) SetPassword(ctx context.Context, username, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE staff_accounts SET password_hash=?, is_active=1 WHERE username=?",
		hash, normalizeUsername(username))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByUsername(ctx, username); err != nil {
			return err
		}
	}
	return nil
}

func (r *StaffRepo) scanOne(row *sql.Row) (model.StaffAccount, error) {
	var (
		a    model.StaffAccount
		role string
	)
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, ErrStaffNotFound
		}
		return a, err
	}
	a.Role = model.Role(role)
	return a, nil
}

// GetByUsername fetches an account by normalized username.
func (r *StaffRepo) GetByUsername(ctx context.Context, username string) (model.StaffAccount, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,is_active,created_at,updated_at FROM staff_accounts WHERE username=? LIMIT 1",
		normalizeUsername(username)))
}

// GetByID fetches an account by id.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (model.StaffAccount, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,is_active,created_at,updated_at FROM staff_accounts WHERE id=? LIMIT 1",
		id))
}
