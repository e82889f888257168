package services

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJWTIssuer = "todo-api-test"
	testJWTKey    = "test-signing-key"
)

func newTestAuthService(t *testing.T, ttl time.Duration) (AuthService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := NewAuthService(
		zerolog.Nop(),
		mock,
		testJWTIssuer,
		[]byte(testJWTKey),
		ttl,
	)
	return svc, mock
}

func TestAuthServiceRegister(t *testing.T) {
	svc, mock := newTestAuthService(t, time.Hour)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			pgxmock.AnyArg(),
			"a@x.com",
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	user, err := svc.Register(context.Background(), RegisterParams{
		Email:    "a@x.com",
		Password: "pw1secret",
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "a@x.com", user.Email)
	_, err = uuid.Parse(user.ID)
	assert.NoError(t, err, "user id must be a generated uuid")

	// The stored password is a salted hash, never the plaintext.
	assert.NotEqual(t, "pw1secret", user.Password)
	match, err := argon2id.ComparePasswordAndHash("pw1secret", user.Password)
	require.NoError(t, err)
	assert.True(t, match)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc, mock := newTestAuthService(t, time.Hour)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			pgxmock.AnyArg(),
			"a@x.com",
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "a@x.com",
		Password: "pw1secret",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthServiceLoginIssuesVerifiableToken(t *testing.T) {
	svc, mock := newTestAuthService(t, time.Hour)

	hash, err := argon2id.CreateHash("pw1secret", argon2id.DefaultParams)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id,").
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "password"}).
			AddRow("user-1", hash))

	result, err := svc.Login(context.Background(), LoginParams{
		Email:    "a@x.com",
		Password: "pw1secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, "a@x.com", result.Email)
	assert.NotEmpty(t, result.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)

	identity, err := svc.VerifyToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "a@x.com", identity.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc, mock := newTestAuthService(t, time.Hour)

	mock.ExpectQuery("SELECT id,").
		WithArgs("missing@x.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Login(context.Background(), LoginParams{
		Email:    "missing@x.com",
		Password: "pw1secret",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthServiceLoginPasswordMismatch(t *testing.T) {
	svc, mock := newTestAuthService(t, time.Hour)

	hash, err := argon2id.CreateHash("the-right-one", argon2id.DefaultParams)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id,").
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "password"}).
			AddRow("user-1", hash))

	_, err = svc.Login(context.Background(), LoginParams{
		Email:    "a@x.com",
		Password: "the-wrong-one",
	})
	assert.ErrorIs(t, err, ErrUserPasswordMismatch)
}

func TestAuthServiceVerifyTokenExpired(t *testing.T) {
	svc, mock := newTestAuthService(t, -time.Minute)

	hash, err := argon2id.CreateHash("pw1secret", argon2id.DefaultParams)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id,").
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "password"}).
			AddRow("user-1", hash))

	result, err := svc.Login(context.Background(), LoginParams{
		Email:    "a@x.com",
		Password: "pw1secret",
	})
	require.NoError(t, err)

	_, err = svc.VerifyToken(result.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthServiceVerifyTokenGarbage(t *testing.T) {
	svc, _ := newTestAuthService(t, time.Hour)

	_, err := svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthServiceVerifyTokenWrongKey(t *testing.T) {
	svc, mock := newTestAuthService(t, time.Hour)

	hash, err := argon2id.CreateHash("pw1secret", argon2id.DefaultParams)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id,").
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "password"}).
			AddRow("user-1", hash))

	result, err := svc.Login(context.Background(), LoginParams{
		Email:    "a@x.com",
		Password: "pw1secret",
	})
	require.NoError(t, err)

	other := NewAuthService(
		zerolog.Nop(),
		mock,
		testJWTIssuer,
		[]byte("a-different-key"),
		time.Hour,
	)
	_, err = other.VerifyToken(result.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
