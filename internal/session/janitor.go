package session

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically removes expired sessions and revoked tokens.
type Janitor struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewJanitor(service *Service, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{service: service, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	sessions, tokens, err := j.service.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			j.logger.Error("session cleanup failed", "error", err)
		}
		return
	}
	if sessions > 0 || tokens > 0 {
		j.logger.Info("expired sessions removed", "sessions", sessions, "blacklisted_tokens", tokens)
	}
}
