package service

import (
	"context"
	"log/slog"
	"time"

	"excellerator/internal/config"
	"excellerator/internal/port"
)

// SessionJanitor evicts sessions idle for longer than the configured TTL.
type SessionJanitor struct {
	store  port.SessionStore
	cfg    config.SessionConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionJanitor creates a new SessionJanitor.
func NewSessionJanitor(store port.SessionStore, cfg config.SessionConfig, logger *slog.Logger) *SessionJanitor {
	return &SessionJanitor{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the sweep loop until ctx is canceled.
func (j *SessionJanitor) Start(ctx context.Context) {
	if j.cfg.TTL <= 0 || j.cfg.JanitorInterval <= 0 {
		j.logger.Info("sessionJanitor: disabled")
		return
	}
	ticker := time.NewTicker(j.cfg.JanitorInterval)
	defer ticker.Stop()

	j.logger.Info("sessionJanitor: started", "interval", j.cfg.JanitorInterval, "ttl", j.cfg.TTL)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("sessionJanitor: shutdown complete")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep evicts idle sessions once and returns how many were dropped.
func (j *SessionJanitor) Sweep(ctx context.Context) int {
	n, err := j.store.EvictIdle(ctx, j.now().Add(-j.cfg.TTL))
	if err != nil {
		j.logger.ErrorContext(ctx, "sessionJanitor: EvictIdle error", "error", err)
		return 0
	}
	if n > 0 {
		j.logger.InfoContext(ctx, "sessionJanitor: evicted idle sessions", "count", n)
	}
	return n
}
