package repository

import (
	"context"
	"errors"

	"github.com/Feighth-arts/glam-sub000/internal/db"
	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	DB *db.Postgres
}

type CreateUserParams struct {
	Name         string
	Email        string
	Phone        string
	Role         domain.UserRole
	PasswordHash *string
	IsGoogle     bool
}

// Create inserts the user and, for clients, bootstraps their points
// ledger row in the same transaction.
func (r UserRepository) Create(ctx context.Context, p CreateUserParams) (*domain.User, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO users (name, email, phone, role, status, password_hash, is_google, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
		RETURNING id, name, email, phone, role, status, is_google, password_hash, created_at, updated_at
	`, p.Name, p.Email, p.Phone, p.Role, domain.UserActive, p.PasswordHash, p.IsGoogle)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}

	if user.Role == domain.RoleClient {
		_, err = tx.Exec(ctx, `
			INSERT INTO user_points (user_id, current_points, lifetime_points, tier, updated_at)
			VALUES ($1, 0, 0, $2, now())
			ON CONFLICT (user_id) DO NOTHING
		`, user.ID, domain.TierBronze)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, email, phone, role, status, is_google, password_hash, created_at, updated_at
		FROM users
		WHERE email=$1 AND deleted_at IS NULL
	`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, email, phone, role, status, is_google, password_hash, created_at, updated_at
		FROM users
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetStatus flips a user between active and suspended (admin action).
func (r UserRepository) SetStatus(ctx context.Context, id int64, status domain.UserStatus) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE users SET status=$2, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL
		RETURNING id, name, email, phone, role, status, is_google, password_hash, created_at, updated_at
	`, id, status)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r UserRepository) List(ctx context.Context, role domain.UserRole, limit int) ([]domain.User, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, email, phone, role, status, is_google, password_hash, created_at, updated_at
		FROM users
		WHERE deleted_at IS NULL AND ($1 = '' OR role = $1)
		ORDER BY id
		LIMIT $2
	`, string(role), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		u      domain.User
		role   string
		status string
	)
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&role,
		&status,
		&u.IsGoogle,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	u.Status = domain.UserStatus(status)
	return &u, nil
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// IsDuplicate detects unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}
