package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"boutique/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT id,email,name,password_hash,role FROM users WHERE email=?`), normalizeKey(email))
	if err != nil {
		return nil, translate("user by email", err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT id,email,name,password_hash,role FROM users WHERE id=?`), id)
	if err != nil {
		return nil, translate("user by id", err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	if err := r.DB.SelectContext(ctx, &out, `SELECT id,email,name,password_hash,role FROM users ORDER BY name, email`); err != nil {
		return nil, translate("list users", err)
	}
	return out, nil
}

// Create stores u with a lower-cased email. Duplicate emails are a conflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	u.Email = normalizeKey(u.Email)
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO users(id,email,name,password_hash,role,created_at) VALUES(?,?,?,?,?,?)
	`), u.ID, u.Email, strings.TrimSpace(u.Name), u.Hash, string(u.Role), stamp(time.Now()))
	return translate("create user", err)
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	now := stamp(time.Now())
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO sessions(id,user_id,created_at,last_seen) VALUES(?,?,?,?)
	`), sid, userID, now, now)
	return translate("bind session", err)
}

// SessionUser resolves a live session and refreshes its last_seen mark.
func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`
      SELECT u.id,u.email,u.name,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`), sid)
	if err != nil {
		return nil, translate("session user", err)
	}
	if _, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE sessions SET last_seen=? WHERE id=?`), stamp(time.Now()), sid); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE id=?`), sid)
	return translate("unbind session", err)
}
