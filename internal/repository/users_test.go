package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnaqnq/todo/internal/apperr"
)

// staticDB satisfies DB with an already-open handle (sqlmock in tests).
type staticDB struct {
	db *sql.DB
}

func (s staticDB) Get(context.Context) (*sql.DB, error) { return s.db, nil }

func newUserRepoMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewUserRepo(staticDB{db}), mock, func() { db.Close() }
}

func TestUserRepo_CreateUser(t *testing.T) {
	repo, mock, done := newUserRepoMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(sqlmock.AnyArg(), "A", "a@x.com", "hashed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := repo.CreateUser(context.Background(), "A", "a@x.com", "hashed")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreateUserDuplicateEmail(t *testing.T) {
	repo, mock, done := newUserRepoMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	_, err := repo.CreateUser(context.Background(), "B", "a@x.com", "hashed")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUserRepo_ByEmailExcludesSecrets(t *testing.T) {
	repo, mock, done := newUserRepoMock(t)
	defer done()

	// The public read selects only non-secret columns.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, created_at FROM users WHERE email = $1`)).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow("u1", "A", "a@x.com", time.Now()))

	user, err := repo.ByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Empty(t, user.PasswordHash)
	assert.Empty(t, user.ResetToken)
	assert.Nil(t, user.ResetTokenExpiry)
}

func TestUserRepo_ByEmailMissingIsNil(t *testing.T) {
	repo, mock, done := newUserRepoMock(t)
	defer done()

	mock.ExpectQuery(`SELECT id, name, email, created_at FROM users`).
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.ByEmail(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepo_UserByEmailWithSecrets(t *testing.T) {
	repo, mock, done := newUserRepoMock(t)
	defer done()

	expiry := time.Now().Add(time.Hour)
	mock.ExpectQuery(`SELECT id, name, email, created_at, password_hash, reset_token, reset_token_expiry FROM users`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "email", "created_at", "password_hash", "reset_token", "reset_token_expiry"}).
			AddRow("u1", "A", "a@x.com", time.Now(), "hashed", "tok", expiry))

	user, err := repo.UserByEmailWithSecrets(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "hashed", user.PasswordHash)
	assert.Equal(t, "tok", user.ResetToken)
	require.NotNil(t, user.ResetTokenExpiry)
	assert.WithinDuration(t, expiry, *user.ResetTokenExpiry, time.Second)
}

func TestUserRepo_RedeemResetToken(t *testing.T) {
	query := regexp.QuoteMeta(`UPDATE users SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL`)
	now := time.Now()

	t.Run("matching unexpired token redeems", func(t *testing.T) {
		repo, mock, done := newUserRepoMock(t)
		defer done()
		mock.ExpectExec(query).
			WithArgs("newhash", "tok", now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.RedeemResetToken(context.Background(), "tok", "newhash", now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no matching row reports false", func(t *testing.T) {
		repo, mock, done := newUserRepoMock(t)
		defer done()
		mock.ExpectExec(query).
			WithArgs("newhash", "wrong", now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.RedeemResetToken(context.Background(), "wrong", "newhash", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserRepo_SetAndClearResetToken(t *testing.T) {
	repo, mock, done := newUserRepoMock(t)
	defer done()

	expiry := time.Now().Add(time.Hour)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET reset_token = $1, reset_token_expiry = $2 WHERE id = $3`)).
		WithArgs("tok", expiry, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET reset_token = NULL, reset_token_expiry = NULL WHERE id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetResetToken(context.Background(), "u1", "tok", expiry))
	require.NoError(t, repo.ClearResetToken(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
