package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingPurger struct {
	calls atomic.Int64
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

func TestSessionJanitorLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	purger := &countingPurger{}
	j := NewSessionJanitor(purger, 10*time.Millisecond, nil)
	ctx := context.Background()

	require.NoError(t, j.Stop(ctx), "stopping an idle janitor is a no-op")

	require.NoError(t, j.Start(ctx))
	assert.True(t, j.IsRunning())
	assert.Error(t, j.Start(ctx))

	assert.Eventually(t, func() bool { return purger.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, j.Stop(stopCtx))
	assert.False(t, j.IsRunning())

	// Restartable after a stop.
	require.NoError(t, j.Start(ctx))
	require.NoError(t, j.Stop(stopCtx))
}

func TestSessionJanitorKeepsRunningOnError(t *testing.T) {
	purger := &countingPurger{err: errors.New("database is locked")}
	j := NewSessionJanitor(purger, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, j.Start(ctx))
	assert.Eventually(t, func() bool { return purger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, j.Stop(stopCtx))
}

func TestSessionJanitorPurgesRealSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "janitor@example.com")
	_, _, err := f.auth.Login(ctx, "janitor@example.com", "password123")
	require.NoError(t, err)
	f.clock.advance(2 * time.Hour)

	n, err := f.auth.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
