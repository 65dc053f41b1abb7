package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/krishnaqnq/todo/internal/apperr"
	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// ResetTokenTTL is how long an issued reset token stays redeemable.
const ResetTokenTTL = time.Hour

// ResetStore is the slice of the credential store the reset flow needs.
// RedeemResetToken atomically swaps the password hash and clears both token
// fields for the user whose stored token matches and whose expiry is
// strictly after now; it reports false when no such user exists.
type ResetStore interface {
	UserByEmailWithSecrets(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, id, token string, expiry time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	RedeemResetToken(ctx context.Context, token, passwordHash string, now time.Time) (bool, error)
}

// Mailer delivers the reset link out-of-band.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// ResetManager issues, delivers and redeems single-use password-reset tokens.
type ResetManager struct {
	store   ResetStore
	mailer  Mailer
	hasher  *Hasher
	baseURL string
	now     func() time.Time
}

// NewResetManager wires the reset flow. baseURL is the public origin used to
// build the link embedded in the email.
func NewResetManager(store ResetStore, mailer Mailer, hasher *Hasher, baseURL string) *ResetManager {
	return &ResetManager{
		store:   store,
		mailer:  mailer,
		hasher:  hasher,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Request issues a reset token for the account behind email and mails the
// reset link. An unknown email is a silent no-op: the caller must not be able
// to tell whether the account exists. Issuing again before redemption
// replaces the stored token, so only the latest one is valid. If delivery
// fails the token fields are cleared before the error is returned; a token
// never outlives a failed delivery.
func (m *ResetManager) Request(ctx context.Context, email string) error {
	if email == "" {
		return apperr.Validation("Email is required")
	}
	user, err := m.store.UserByEmailWithSecrets(ctx, email)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to process password reset request", err)
	}
	if user == nil {
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to process password reset request", err)
	}
	expiry := m.now().Add(ResetTokenTTL)
	if err := m.store.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to process password reset request", err)
	}

	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", m.baseURL, token)
	if err := m.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		logger.Error(ctx, "Password reset delivery failed", "user_id", user.ID, "error", err)
		if clearErr := m.store.ClearResetToken(ctx, user.ID); clearErr != nil {
			logger.Error(ctx, "Reset token rollback failed", "user_id", user.ID, "error", clearErr)
		}
		return apperr.Wrap(apperr.KindDelivery, "Failed to send password reset email. Please try again.", err)
	}
	logger.Info(ctx, "Password reset email sent", "user_id", user.ID)
	return nil
}

// Redeem consumes a reset token and stores the new password. Wrong and
// expired tokens fail identically; a successfully redeemed token cannot be
// replayed because redemption clears it in the same statement.
func (m *ResetManager) Redeem(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperr.Validation("Token and password are required")
	}
	if len(newPassword) < 6 {
		return apperr.Validation("Password must be at least 6 characters long")
	}
	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to reset password", err)
	}
	ok, err := m.store.RedeemResetToken(ctx, token, hash, m.now())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to reset password", err)
	}
	if !ok {
		return apperr.Validation("Invalid or expired reset token")
	}
	logger.Info(ctx, "Password reset completed")
	return nil
}

// newResetToken returns 256 bits of entropy, hex-encoded.
func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
