package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/mkravets/todo-api/internal/models"
)

type accessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type authServiceImpl struct {
	logger            zerolog.Logger
	db                DB
	jwtIssuer         string
	jwtSigningKey     []byte
	jwtAccessTokenTTL time.Duration
}

func NewAuthService(
	logger zerolog.Logger,
	db DB,
	jwtIssuer string,
	jwtSigningKey []byte,
	jwtAccessTokenTTL time.Duration,
) AuthService {
	return &authServiceImpl{
		logger:            logger,
		db:                db,
		jwtIssuer:         jwtIssuer,
		jwtSigningKey:     jwtSigningKey,
		jwtAccessTokenTTL: jwtAccessTokenTTL,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	now := time.Now()
	user := models.User{
		Email:     params.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	const insertUserQuery = `
INSERT INTO users (id,
                   email,
                   password,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err = s.db.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Email,
		user.Password,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				s.logger.Error().
					Str("email", user.Email).
					Msg("user with this email already exists")
				return nil, ErrUserAlreadyExists
			}
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("registered user")
	return &user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user := models.User{
		Email: params.Email,
	}

	const selectUserByEmailQuery = `
SELECT id,
       password
FROM users
WHERE email = $1
`
	err := s.db.QueryRow(
		ctx,
		selectUserByEmailQuery,
		user.Email,
	).Scan(
		&user.ID,
		&user.Password,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("email", user.Email).
			Msg("failed to select user by email")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("selected user")

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().Msg("passwords do not match")
		return nil, ErrUserPasswordMismatch
	}

	accessToken, expiresAt, err := s.generateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in")
	return &LoginResult{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *authServiceImpl) VerifyToken(token string) (*Identity, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&accessTokenClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(*accessTokenClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}

func (s *authServiceImpl) generateAccessToken(userID, email string) (string, time.Time, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate id: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtAccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenUUID.String(),
			Issuer:    s.jwtIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
