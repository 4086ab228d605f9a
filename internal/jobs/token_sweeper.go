// Package jobs implements background tasks that run independently of
// HTTP request handling.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ResetTokenStore clears expired password-reset tokens
type ResetTokenStore interface {
	ClearExpiredResetTokens(ctx context.Context) error
}

// TokenSweeper periodically removes expired password-reset tokens so
// stale secrets do not accumulate
type TokenSweeper struct {
	store    ResetTokenStore
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewTokenSweeper creates a new token sweeper
func NewTokenSweeper(store ResetTokenStore, interval time.Duration) *TokenSweeper {
	if interval == 0 {
		interval = 15 * time.Minute
	}
	return &TokenSweeper{
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweeper loop
func (j *TokenSweeper) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	slog.Info("token sweeper started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the sweeper
func (j *TokenSweeper) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	slog.Info("token sweeper stopped")
}

func (j *TokenSweeper) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep (also used by tests)
func (j *TokenSweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := j.store.ClearExpiredResetTokens(ctx); err != nil {
		slog.Error("token sweep failed", slog.String("error", err.Error()))
	}
}
