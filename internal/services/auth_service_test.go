package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multitool/internal/amqp"
	"multitool/internal/core"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, "  jane   van der doe ", " Jane@Example.COM ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Jane   Van Der Doe", u.Name)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.Equal(t, []string{amqp.KindUserRegistered}, f.pub.kinds())

	_, err = f.auth.Register(ctx, "Other", "JANE@example.com", "password123")
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name, user, email, password string
	}{
		{"missing name", " ", "a@b.c", "password123"},
		{"bad email", "A", "nope", "password123"},
		{"short password", "A", "a@b.c", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tt.user, tt.email, tt.password)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "login@example.com")

	_, _, err := f.auth.Login(ctx, "login@example.com", "wrong-password")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	_, _, err = f.auth.Login(ctx, "ghost@example.com", "password123")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	session, got, err := f.auth.Login(ctx, "LOGIN@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, f.clock.now().Add(time.Hour), session.ExpiresAt)

	authed, err := f.auth.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, authed.ID)

	_, err = f.auth.Authenticate(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	require.NoError(t, f.auth.Logout(ctx, session.Token))
	_, err = f.auth.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestSessionExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "exp@example.com")

	first, _, err := f.auth.Login(ctx, "exp@example.com", "password123")
	require.NoError(t, err)
	f.clock.advance(30 * time.Minute)
	second, _, err := f.auth.Login(ctx, "exp@example.com", "password123")
	require.NoError(t, err)

	f.clock.advance(45 * time.Minute)
	_, err = f.auth.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = f.auth.Authenticate(ctx, second.Token)
	require.NoError(t, err)

	f.clock.advance(time.Hour)
	n, err := f.auth.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "first session was already removed on access")
}
