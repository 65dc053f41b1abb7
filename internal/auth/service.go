// Package auth implements the credential lifecycle: registration, login,
// password change, session issuing, and the forgot/reset-password token flow.
package auth

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/krishnaqnq/todo/internal/apperr"
	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// UserStore is the credential store as consumed by the auth service. Reads
// come in two flavors: the plain ones never populate secret fields, the
// WithSecrets ones do and exist only for credential verification flows.
// Lookups return (nil, nil) when no user matches.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	UserByEmailWithSecrets(ctx context.Context, email string) (*models.User, error)
	UserByIDWithSecrets(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Service handles registration, login and password change.
type Service struct {
	store    UserStore
	hasher   *Hasher
	sessions *Sessions
	validate *validator.Validate
}

// NewService wires the auth service to its credential store, hasher and
// session issuer.
func NewService(store UserStore, hasher *Hasher, sessions *Sessions) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		sessions: sessions,
		validate: validator.New(),
	}
}

type registerInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// registerMessages mirrors the field constraints; all violations are
// collected and joined into one message rather than failing on the first.
var registerMessages = map[string]string{
	"Name":     "Name is required",
	"Email":    "Please provide a valid email",
	"Password": "Password must be at least 6 characters",
}

// Register validates the input, hashes the password and creates the user.
// Plaintext never reaches the store.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	in := registerInput{Name: name, Email: email, Password: password}
	if err := s.validate.Struct(in); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, registerMessages[fe.Field()])
			}
		}
		if len(msgs) == 0 {
			msgs = append(msgs, "Invalid request")
		}
		return nil, apperr.Validation(strings.Join(msgs, ", "))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to register user", err)
	}
	user, err := s.store.CreateUser(ctx, name, email, hash)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "User registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are deliberately indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	invalid := apperr.Unauthorized("Invalid credentials")

	user, err := s.store.UserByEmailWithSecrets(ctx, email)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "Failed to log in", err)
	}
	if user == nil {
		return "", nil, invalid
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		logger.Debug(ctx, "Login failed", "user_id", user.ID)
		return "", nil, invalid
	}
	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "Failed to log in", err)
	}
	return token, user, nil
}

// ChangePassword verifies the current password before storing a hash of the
// new one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if len(newPassword) < 6 {
		return apperr.Validation("New password must be at least 6 characters long")
	}
	user, err := s.store.UserByIDWithSecrets(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to change password", err)
	}
	if user == nil {
		return apperr.NotFound("User not found")
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return apperr.Validation("Current password is incorrect")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to change password", err)
	}
	if err := s.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to change password", err)
	}
	logger.Info(ctx, "Password changed", "user_id", user.ID)
	return nil
}
