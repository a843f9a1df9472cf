package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careloop/clinic-booking/internal/booking"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanUser(row pgx.Row) (*UserRecord, error) {
	var u UserRecord

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (r *PgRepository) CreateUser(ctx context.Context, rec *UserRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, name, email, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.Name, rec.Email, rec.Role, rec.PasswordHash, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	// Role profile rows mirror the doctors/patients tables the clients read.
	switch rec.Role {
	case booking.RoleDoctor:
		_, err = tx.Exec(ctx, `
			INSERT INTO doctors (doctor_id, name)
			VALUES ($1, $2)
		`, rec.ID, rec.Name)
	case booking.RolePatient:
		_, err = tx.Exec(ctx, `
			INSERT INTO patients (patient_id, first_name)
			VALUES ($1, $2)
		`, rec.ID, rec.Name)
	default:
		err = fmt.Errorf("unknown role %q", rec.Role)
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, role, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*UserRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, role, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}
