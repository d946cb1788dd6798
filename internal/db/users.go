package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/catalog-api/backend/internal/model"
)

const userColumns = `id, email, name, password_hash, role, active, password_changed_at,
	api_key_digest, api_key_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.PasswordChangedAt,
		&user.APIKeyDigest,
		&user.APIKeyExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (db *Postgres) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	query := `
		INSERT INTO users (email, name, password_hash, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + userColumns
	created, err := scanUser(db.Pool.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

func (db *Postgres) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, userID))
}

func (db *Postgres) GetUserByAPIKeyDigest(ctx context.Context, digest string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE api_key_digest = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, digest))
}

// UpdatePassword stores a new hash together with the change timestamp used for token staleness.
func (db *Postgres) UpdatePassword(ctx context.Context, userID int64, passwordHash string, changedAt time.Time) (*model.User, error) {
	query := `
		UPDATE users
		SET password_hash = $2, password_changed_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(db.Pool.QueryRow(ctx, query, userID, passwordHash, changedAt))
}

// SetAPIKey replaces the key digest and expiry in a single statement.
func (db *Postgres) SetAPIKey(ctx context.Context, userID int64, digest string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET api_key_digest = $2, api_key_expires_at = $3, updated_at = NOW()
		WHERE id = $1 AND active
	`
	tag, err := db.Pool.Exec(ctx, query, userID, digest, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (db *Postgres) SetUserActive(ctx context.Context, userID int64, active bool) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE users SET active = $2, updated_at = NOW() WHERE id = $1`, userID, active)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
