package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnaqnq/todo/internal/apperr"
)

type fakeMailer struct {
	sent    []string // reset URLs, in order
	sendErr error
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, resetURL)
	return nil
}

func newResetFixture(t *testing.T) (*fakeUserStore, *fakeMailer, *ResetManager, string) {
	t.Helper()
	store := newFakeUserStore()
	mailer := &fakeMailer{}
	hasher := NewHasher()
	mgr := NewResetManager(store, mailer, hasher, "http://localhost:8080")

	svc := NewService(store, hasher, NewSessions("test-secret"))
	user, err := svc.Register(context.Background(), "A", "a@x.com", "secret1")
	require.NoError(t, err)
	return store, mailer, mgr, user.ID
}

func storedToken(t *testing.T, store *fakeUserStore, userID string) string {
	t.Helper()
	u := store.users[userID]
	require.NotNil(t, u)
	return u.ResetToken
}

func TestReset_RequestUnknownEmailIsSilent(t *testing.T) {
	_, mailer, mgr, _ := newResetFixture(t)

	err := mgr.Request(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, mailer.sent, "no email must go out for unknown accounts")
}

func TestReset_RequestIssuesTokenAndMailsLink(t *testing.T) {
	store, mailer, mgr, userID := newResetFixture(t)

	require.NoError(t, mgr.Request(context.Background(), "a@x.com"))

	token := storedToken(t, store, userID)
	assert.Len(t, token, 64, "32 random bytes, hex-encoded")
	require.NotNil(t, store.users[userID].ResetTokenExpiry)
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), *store.users[userID].ResetTokenExpiry, 5*time.Second)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "http://localhost:8080/auth/reset-password?token="+token, mailer.sent[0])
}

func TestReset_DeliveryFailureRollsTokenBack(t *testing.T) {
	store, mailer, mgr, userID := newResetFixture(t)
	mailer.sendErr = errors.New("smtp refused")

	err := mgr.Request(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindDelivery, apperr.KindOf(err))

	// The token must not outlive the failed delivery.
	assert.Empty(t, store.users[userID].ResetToken)
	assert.Nil(t, store.users[userID].ResetTokenExpiry)
}

func TestReset_RedeemHappyPathIsOneTime(t *testing.T) {
	store, _, mgr, userID := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, mgr.Request(ctx, "a@x.com"))
	token := storedToken(t, store, userID)

	require.NoError(t, mgr.Redeem(ctx, token, "newsecret"))
	assert.Empty(t, store.users[userID].ResetToken)
	assert.Nil(t, store.users[userID].ResetTokenExpiry)
	assert.True(t, NewHasher().Verify("newsecret", store.users[userID].PasswordHash))

	// Replaying the consumed token must fail generically.
	err := mgr.Redeem(ctx, token, "anothersecret")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired reset token", apperr.Message(err))
}

func TestReset_SecondIssuanceInvalidatesFirstToken(t *testing.T) {
	store, _, mgr, userID := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, mgr.Request(ctx, "a@x.com"))
	first := storedToken(t, store, userID)
	require.NoError(t, mgr.Request(ctx, "a@x.com"))
	second := storedToken(t, store, userID)
	require.NotEqual(t, first, second)

	err := mgr.Redeem(ctx, first, "newsecret")
	require.Error(t, err, "only the latest token may redeem")
	require.NoError(t, mgr.Redeem(ctx, second, "newsecret"))
}

func TestReset_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("just before expiry succeeds", func(t *testing.T) {
		store, _, mgr, userID := newResetFixture(t)
		require.NoError(t, mgr.Request(ctx, "a@x.com"))
		token := storedToken(t, store, userID)

		expiry := *store.users[userID].ResetTokenExpiry
		mgr.now = func() time.Time { return expiry.Add(-time.Second) }
		require.NoError(t, mgr.Redeem(ctx, token, "newsecret"))
	})

	t.Run("just after expiry fails", func(t *testing.T) {
		store, _, mgr, userID := newResetFixture(t)
		require.NoError(t, mgr.Request(ctx, "a@x.com"))
		token := storedToken(t, store, userID)

		expiry := *store.users[userID].ResetTokenExpiry
		mgr.now = func() time.Time { return expiry.Add(time.Second) }
		err := mgr.Redeem(ctx, token, "newsecret")
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestReset_RedeemShortPasswordRejectedBeforeMutation(t *testing.T) {
	store, _, mgr, userID := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, mgr.Request(ctx, "a@x.com"))
	token := storedToken(t, store, userID)

	err := mgr.Redeem(ctx, token, "abc")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	// Token untouched: the short password was rejected before any mutation.
	assert.Equal(t, token, store.users[userID].ResetToken)
}

func TestReset_RedeemMissingToken(t *testing.T) {
	_, _, mgr, _ := newResetFixture(t)

	err := mgr.Redeem(context.Background(), "", "newsecret")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
