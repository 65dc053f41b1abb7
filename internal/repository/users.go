// Package repository implements the persistence layer over postgres. Each
// User and each Todo is a single row, so every operation here is atomic at
// the document level.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/krishnaqnq/todo/internal/apperr"
	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// DB yields the shared connection pool on demand, connecting lazily.
type DB interface {
	Get(ctx context.Context) (*sql.DB, error)
}

const pqUniqueViolation = "23505"

// UserRepo is the credential store. Plain reads never return secret fields
// (password hash, reset token, reset token expiry); the WithSecrets variants
// exist for login, password change and reset flows only.
type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts a new user. The caller provides an already-hashed
// password; plaintext is never persisted.
func (r *UserRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, apperr.Conflict("User with this email already exists")
		}
		logger.Error(ctx, "Repository CreateUser failed", "error", err)
		return nil, err
	}
	return user, nil
}

// ByEmail returns the user with the given email, secrets excluded, or nil.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanPublic(ctx, `SELECT id, name, email, created_at FROM users WHERE email = $1`, email)
}

// ByID returns the user with the given id, secrets excluded, or nil.
func (r *UserRepo) ByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanPublic(ctx, `SELECT id, name, email, created_at FROM users WHERE id = $1`, id)
}

// UserByEmailWithSecrets returns the user including secret fields, or nil.
func (r *UserRepo) UserByEmailWithSecrets(ctx context.Context, email string) (*models.User, error) {
	return r.scanSecret(ctx,
		`SELECT id, name, email, created_at, password_hash, reset_token, reset_token_expiry FROM users WHERE email = $1`,
		email)
}

// UserByIDWithSecrets returns the user including secret fields, or nil.
func (r *UserRepo) UserByIDWithSecrets(ctx context.Context, id string) (*models.User, error) {
	return r.scanSecret(ctx,
		`SELECT id, name, email, created_at, password_hash, reset_token, reset_token_expiry FROM users WHERE id = $1`,
		id)
}

// UpdatePassword stores a new password hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	db, err := r.db.Get(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		logger.Error(ctx, "Repository UpdatePassword failed", "error", err, "id", id)
	}
	return err
}

// SetResetToken stores a reset token and its expiry on the user, replacing
// any previously issued token.
func (r *UserRepo) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	db, err := r.db.Get(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE users SET reset_token = $1, reset_token_expiry = $2 WHERE id = $3`,
		token, expiry, id)
	if err != nil {
		logger.Error(ctx, "Repository SetResetToken failed", "error", err, "id", id)
	}
	return err
}

// ClearResetToken removes both reset-token fields from the user.
func (r *UserRepo) ClearResetToken(ctx context.Context, id string) error {
	db, err := r.db.Get(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE users SET reset_token = NULL, reset_token_expiry = NULL WHERE id = $1`, id)
	if err != nil {
		logger.Error(ctx, "Repository ClearResetToken failed", "error", err, "id", id)
	}
	return err
}

// RedeemResetToken swaps in the new password hash and clears both token
// fields for the user whose stored token matches and is unexpired at now.
// The single UPDATE makes redemption one-time: a replay matches zero rows.
func (r *UserRepo) RedeemResetToken(ctx context.Context, token, passwordHash string, now time.Time) (bool, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL
		 WHERE reset_token = $2 AND reset_token_expiry > $3`,
		passwordHash, token, now)
	if err != nil {
		logger.Error(ctx, "Repository RedeemResetToken failed", "error", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepo) scanPublic(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	var u models.User
	err = db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository user lookup failed", "error", err)
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) scanSecret(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	var (
		u      models.User
		token  sql.NullString
		expiry sql.NullTime
	)
	err = db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.PasswordHash, &token, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository user lookup failed", "error", err)
		return nil, err
	}
	if token.Valid {
		u.ResetToken = token.String
	}
	if expiry.Valid {
		t := expiry.Time
		u.ResetTokenExpiry = &t
	}
	return &u, nil
}
