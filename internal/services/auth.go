package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/capoo-pm/apiserver/internal/auth"
	"github.com/capoo-pm/apiserver/internal/events"
	"github.com/capoo-pm/apiserver/internal/store"
	"github.com/capoo-pm/apiserver/types"
	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, reg types.UserRegistration, passwordHash string) (types.User, error)
	Update(ctx context.Context, id uuid.UUID, update types.UserUpdate) (types.User, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
	VerifyDummy(plaintext string)
}

// TokenCodec issues and decodes signed tokens.
type TokenCodec interface {
	Issue(tokenType auth.TokenType, claims auth.Claims, ttl time.Duration) (string, error)
	Decode(token string) (auth.Claims, error)
}

// TokenLifetimes configures how long issued tokens stay valid.
type TokenLifetimes struct {
	Access  time.Duration
	Refresh time.Duration
}

// AuthService handles registration, login and token refresh.
// Refresh tokens are not tracked: a rotated refresh token stays valid until
// it expires.
type AuthService struct {
	repo      UserRepository
	hasher    PasswordHasher
	codec     TokenCodec
	lifetimes TokenLifetimes
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	repo UserRepository,
	hasher PasswordHasher,
	codec TokenCodec,
	lifetimes TokenLifetimes,
	publisher events.Publisher,
	logger *slog.Logger,
) *AuthService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		codec:     codec,
		lifetimes: lifetimes,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account and returns it.
func (s *AuthService) Register(ctx context.Context, reg types.UserRegistration) (types.User, error) {
	reg.Email = NormalizeEmail(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)

	// Fast path only; the store's unique constraint decides races.
	if _, err := s.repo.GetByEmail(ctx, reg.Email); err == nil {
		return types.User{}, newError(KindConflict, KeyEmailAlreadyRegistered, nil)
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, unexpected("check email", err)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return types.User{}, newError(KindValidation, KeyValidationFailed, err)
	}
	if err != nil {
		return types.User{}, unexpected("hash password", err)
	}

	user, err := s.repo.Create(ctx, reg, hash)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, newError(KindConflict, KeyEmailAlreadyRegistered, err)
		}
		return types.User{}, unexpected("create user", err)
	}

	s.publish(ctx, events.TypeUserRegistered, user)
	return user, nil
}

// Login checks credentials and issues a fresh token pair. Unknown emails and
// wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			return types.TokenPair{}, newError(KindUnauthorized, KeyInvalidCredentials, nil)
		}
		return types.TokenPair{}, unexpected("load user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return types.TokenPair{}, newError(KindUnauthorized, KeyInvalidCredentials, nil)
	}

	return s.issuePair(user)
}

// Refresh exchanges a valid refresh token for a new access/refresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (types.TokenPair, error) {
	user, err := s.resolve(ctx, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return types.TokenPair{}, err
	}
	return s.issuePair(user)
}

// Authenticate resolves an access token to the user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (types.User, error) {
	return s.resolve(ctx, accessToken, auth.TokenTypeAccess)
}

func (s *AuthService) resolve(ctx context.Context, token string, want auth.TokenType) (types.User, error) {
	invalid := newError(KindUnauthorized, KeyInvalidToken, nil)

	claims, err := s.codec.Decode(token)
	if err != nil {
		return types.User{}, invalid
	}
	if claims.Type() != want {
		return types.User{}, invalid
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return types.User{}, invalid
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, invalid
		}
		return types.User{}, unexpected("load user", err)
	}
	return user, nil
}

func (s *AuthService) issuePair(user types.User) (types.TokenPair, error) {
	access, err := s.codec.Issue(auth.TokenTypeAccess, auth.Claims{
		UserID: user.ID.String(),
		Role:   user.Role,
	}, s.lifetimes.Access)
	if err != nil {
		return types.TokenPair{}, unexpected("issue access token", err)
	}

	refresh, err := s.codec.Issue(auth.TokenTypeRefresh, auth.Claims{
		UserID: user.ID.String(),
	}, s.lifetimes.Refresh)
	if err != nil {
		return types.TokenPair{}, unexpected("issue refresh token", err)
	}

	return types.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.lifetimes.Access / time.Second),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, user types.User) {
	publishEvent(ctx, s.publisher, s.logger, eventType, user, s.now())
}

func publishEvent(ctx context.Context, publisher events.Publisher, logger *slog.Logger, eventType string, user types.User, at time.Time) {
	err := publisher.Publish(ctx, events.Event{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: at.UTC(),
	})
	if err != nil {
		logger.WarnContext(ctx, "event publish failed",
			slog.String("event", eventType),
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	}
}
