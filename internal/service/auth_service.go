package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/examenv-backend/internal/config"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stemsi/examenv-backend/internal/repository"
)

// Messages returned by VerifyToken.
const (
	TokenVerifiedMessage   = "Token verified."
	TokenNotCreatedMessage = "Token does not appear to have been created."
)

// TokenStore persists exam environment authorization tokens.
type TokenStore interface {
	Replace(ctx context.Context, userID uuid.UUID, expireAt time.Time) (*model.AuthorizationToken, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.AuthorizationToken, error)
}

// Claims is the payload of the JWT handed to the exam environment app.
// It only references the stored token; the token row carries the user.
type Claims struct {
	jwt.RegisteredClaims
	ExamEnvironmentAuthorizationToken string `json:"examEnvironmentAuthorizationToken"`
}

// AuthService issues and checks exam environment authorization tokens.
type AuthService struct {
	cfg    *config.Config
	tokens TokenStore
	users  UserStore
	now    func() time.Time
	log    zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, tokens TokenStore, users UserStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		tokens: tokens,
		users:  users,
		now:    time.Now,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
}

// IssueToken creates a token for userID and returns it signed.
// Any token the user held before stops working.
func (s *AuthService) IssueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	now := s.now()
	token, err := s.tokens.Replace(ctx, userID, now.Add(s.cfg.ExamTokenExpiry))
	if err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(token.ExpireAt),
		},
		ExamEnvironmentAuthorizationToken: token.ID.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("token_id", token.ID.String()).
		Time("expire_at", token.ExpireAt).
		Msg("Exam environment token issued")
	return signed, nil
}

// parse checks the signature of encoded and returns the token id it carries.
func (s *AuthService) parse(encoded string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(encoded, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrTokenInvalid
	}
	id, err := uuid.Parse(claims.ExamEnvironmentAuthorizationToken)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed token id", ErrTokenInvalid)
	}
	return id, nil
}

// Authenticate resolves encoded to a stored, unexpired token.
func (s *AuthService) Authenticate(ctx context.Context, encoded string) (*model.AuthorizationToken, error) {
	id, err := s.parse(encoded)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	if token.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	return token, nil
}

// VerifyToken reports, in words, whether encoded refers to a token that was
// issued. A token that cannot be verified at all fails with ErrTokenInvalid.
func (s *AuthService) VerifyToken(ctx context.Context, encoded string) (string, error) {
	id, err := s.parse(encoded)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenNotCreatedMessage, nil
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	if token.Expired(s.now()) {
		return "", ErrTokenExpired
	}
	return TokenVerifiedMessage, nil
}
