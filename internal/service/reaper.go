package service

import (
	"context"
	"sync"
	"time"

	"codeinterview/internal/clock"
	"codeinterview/internal/repository"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
)

// Reaper periodically deletes sessions that have no participants and are
// older than maxAge. Nobody is notified; such sessions have no audience.
type Reaper struct {
	sessions repository.SessionRepo
	interval time.Duration
	maxAge   time.Duration
	clock    clock.Clock
	logger   *zap.SugaredLogger
	stats    tally.Scope

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewReaper creates a new idle session reaper
func NewReaper(
	sessions repository.SessionRepo,
	interval, maxAge time.Duration,
	clk clock.Clock,
	logger *zap.SugaredLogger,
	stats tally.Scope,
) *Reaper {
	return &Reaper{
		sessions: sessions,
		interval: interval,
		maxAge:   maxAge,
		clock:    clk,
		logger:   logger,
		stats:    stats,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Sweep runs one pass and returns the number of deleted sessions. The
// roster size is checked at delete time, so a join racing the sweep wins.
func (r *Reaper) Sweep(ctx context.Context) int {
	cutoff := r.clock.Now().Add(-r.maxAge)

	deleted := 0
	for _, s := range r.sessions.List(ctx) {
		if s.ParticipantCount > 0 || !s.CreatedAt.Before(cutoff) {
			continue
		}
		if r.sessions.DeleteIfIdle(ctx, s.ID, cutoff) {
			deleted++
			r.logger.Infow("reaped idle session", "session", s.ID, "createdAt", s.CreatedAt)
		}
	}

	if deleted > 0 {
		r.stats.Counter("reaper.deleted").Inc(int64(deleted))
	}
	return deleted
}

// Start launches the sweep loop
func (r *Reaper) Start() {
	go r.run()
}

// Stop ends the sweep loop and waits for it to exit
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	<-r.done
}

func (r *Reaper) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(context.Background())
		case <-r.stop:
			return
		}
	}
}
