package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"multitool/internal/metrics"
)

// SessionPurger deletes expired sessions. *AuthService implements it.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionJanitor periodically removes expired sessions in the background.
type SessionJanitor struct {
	purger   SessionPurger
	interval time.Duration
	metrics  *metrics.Metrics

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSessionJanitor(purger SessionPurger, interval time.Duration, m *metrics.Metrics) *SessionJanitor {
	return &SessionJanitor{
		purger:   purger,
		interval: interval,
		metrics:  m,
	}
}

// Start begins the purge loop. Returns an error if already running.
func (j *SessionJanitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return fmt.Errorf("session janitor is already running")
	}
	j.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	j.stopCh, j.doneCh = stopCh, doneCh
	j.mu.Unlock()

	go j.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Session janitor started", "interval", j.interval)
	return nil
}

// Stop signals the loop and waits for it, bounded by ctx.
func (j *SessionJanitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return nil
	}
	stopCh, doneCh := j.stopCh, j.doneCh
	j.running = false
	j.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Session janitor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Session janitor stop timed out")
		return ctx.Err()
	}
}

func (j *SessionJanitor) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *SessionJanitor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.purge(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j *SessionJanitor) purge(ctx context.Context) {
	n, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to purge expired sessions", "error", err)
		return
	}
	j.metrics.SessionsPurged(n)
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions purged", "count", n)
	}
}
