package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"multitool/internal/amqp"
	"multitool/internal/core"
	"multitool/internal/storage"
)

// DefaultBcryptCost matches the cost existing password hashes were made with.
const DefaultBcryptCost = 10

// AuthService registers users and manages cookie sessions.
type AuthService struct {
	storage    *storage.SQLiteRepository
	events     *Events
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

type AuthOption func(*AuthService)

// WithBcryptCost overrides the hashing cost, mostly for fast tests.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(storage *storage.SQLiteRepository, events *Events, ttl time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		storage:    storage,
		events:     events,
		ttl:        ttl,
		bcryptCost: DefaultBcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. The email is lower-cased and each word of
// the name capitalised; a taken email yields core.ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (core.User, error) {
	name = strings.TrimSpace(name)
	email = core.NormalizeEmail(email)
	if name == "" {
		return core.User{}, fmt.Errorf("%w: name is required", core.ErrInvalidInput)
	}
	if err := core.ValidateCredentials(email, password); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, core.User{
		Name:         core.FormatName(name),
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("register %s: %w", email, err)
	}

	s.events.emit(ctx, user.ID, amqp.KindUserRegistered, user.ID, nil)
	return user, nil
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.Session, core.User, error) {
	user, err := s.storage.UserByEmail(ctx, core.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Session{}, core.User{}, fmt.Errorf("login: %w", core.ErrUnauthorized)
		}
		return core.Session{}, core.User{}, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return core.Session{}, core.User{}, fmt.Errorf("login: %w", core.ErrUnauthorized)
	}

	session := core.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.storage.CreateSession(ctx, session); err != nil {
		return core.Session{}, core.User{}, fmt.Errorf("login: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return session, user, nil
}

// Authenticate resolves a session token to its user. Missing, malformed and
// expired tokens all return core.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return core.User{}, core.ErrUnauthorized
	}

	session, err := s.storage.SessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrUnauthorized
		}
		return core.User{}, fmt.Errorf("authenticate: %w", err)
	}

	if session.Expired(s.now()) {
		if err := s.storage.DeleteSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "Failed to delete expired session", "error", err)
		}
		return core.User{}, core.ErrUnauthorized
	}

	user, err := s.storage.UserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrUnauthorized
		}
		return core.User{}, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.storage.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// PurgeExpired deletes every session past its expiry.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.storage.DeleteExpiredSessions(ctx, s.now())
}

// SessionTTL is the lifetime given to new sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}
