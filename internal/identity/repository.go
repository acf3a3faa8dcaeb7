package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) error
	UpdatePassword(ctx context.Context, userID, hash string, changedAt time.Time) error
	ListCustomers(ctx context.Context) ([]User, error)
}

const userColumns = `id, name, email, phone, role, password_hash, date_of_birth, gender,
	member_since, last_password_change, loyalty_points, total_orders`

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, role, password_hash, member_since)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Name, u.Email, u.Phone, u.Role, u.PasswordHash, u.MemberSince)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return apperr.Conflict("email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name=$2, phone=$3, date_of_birth=$4, gender=$5, updated_at=now()
		WHERE id=$1
	`, userID, p.Name, p.Phone, p.DateOfBirth, p.Gender)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID, hash string, changedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash=$2, last_password_change=$3, updated_at=now()
		WHERE id=$1
	`, userID, hash, changedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (r *PostgresRepository) ListCustomers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role <> 'admin' ORDER BY member_since DESC`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) getOne(ctx context.Context, sql string, arg string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash, &u.DateOfBirth, &u.Gender,
		&u.MemberSince, &u.LastPasswordChange, &u.LoyaltyPoints, &u.TotalOrders)
	return u, err
}
