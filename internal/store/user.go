package store

import (
	"context"

	"github.com/google/uuid"

	"booking-requests-api/internal/model"
)

const userCols = `id, email, password_hash, name, phone, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, name, phone, role)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// UpdateUser saves the profile fields (name, phone, email).
func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET name=$1, phone=$2, email=$3, updated_at=NOW()
		 WHERE id=$4
		 RETURNING updated_at`,
		u.Name, u.Phone, u.Email, u.ID,
	).Scan(&u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return notFound(err)
}

// EnsureAdmin creates the account if the email is unknown and promotes it to admin.
// An existing password is kept.
func (s *Store) EnsureAdmin(ctx context.Context, email, passwordHash, name string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, name, role)
		 VALUES ($1,$2,$3,$4,'admin')
		 ON CONFLICT (email) DO UPDATE SET role='admin', updated_at=NOW()
		 RETURNING `+userCols,
		uuid.New().String(), email, passwordHash, name,
	))
}
