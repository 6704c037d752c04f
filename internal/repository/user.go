package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfilePatch) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type userRepo struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, password_hash, first_name, last_name, phone_number, is_verified, is_active)
	          VALUES (:id, :email, :password_hash, :first_name, :last_name, :phone_number, :is_verified, :is_active)`
	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}

func (r *userRepo) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	query := `SELECT * FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("repository.GetUser", "user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT * FROM users WHERE LOWER(email) = LOWER($1)`
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("repository.GetUserByEmail", "user")
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfilePatch) error {
	query := `UPDATE users SET
	            first_name = COALESCE($1, first_name),
	            last_name = COALESCE($2, last_name),
	            phone_number = COALESCE($3, phone_number),
	            updated_at = NOW()
	          WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, patch.FirstName, patch.LastName, patch.PhoneNumber, id)
	return err
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, passwordHash, id)
	return err
}
