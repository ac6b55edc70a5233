package handlers

import (
	"context"
	"time"

	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/services"
)

// SessionJanitor evicts idle sessions on a fixed interval.
type SessionJanitor struct {
	store    *services.SessionStore
	maxAge   time.Duration
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
}

func NewSessionJanitor(store *services.SessionStore, maxAge, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (j *SessionJanitor) Start(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	j.ticker = time.NewTicker(j.interval)

	go func() {
		defer close(j.stopped)
		for {
			select {
			case <-j.done:
				return
			case <-j.ticker.C:
				j.Sweep(ctx)
			}
		}
	}()
	logger.Info("session janitor started", "max_age", j.maxAge.String(), "interval", j.interval.String())
}

func (j *SessionJanitor) Stop(ctx context.Context) {
	if j.ticker == nil {
		return
	}
	j.ticker.Stop()
	close(j.done)
	<-j.stopped
	ctxlog.FromContext(ctx).Info("session janitor stopped")
}

// Sweep runs one eviction pass.
func (j *SessionJanitor) Sweep(ctx context.Context) int {
	removed := j.store.Sweep(j.maxAge)
	if removed > 0 {
		ctxlog.FromContext(ctx).Info("evicted idle sessions", "count", removed, "remaining", j.store.Len())
	}
	return removed
}
