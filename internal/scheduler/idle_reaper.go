package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/chantabs/internal/logger"
)

// DefaultIdleTimeout is how long a user may stay inactive before their
// sessions are dropped from memory.
const DefaultIdleTimeout = 30 * time.Minute

// IdleEvicter drops users not seen for longer than idle.
type IdleEvicter interface {
	EvictIdle(idle time.Duration) []string
}

// EvictionRecorder counts evicted users by reason.
type EvictionRecorder interface {
	Evicted(reason string, n int)
}

// IdleReaper periodically evicts the sessions of inactive users. Their state
// is already persisted, the next request loads it again.
type IdleReaper struct {
	registry  IdleEvicter
	recorder  EvictionRecorder
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

// NewIdleReaper creates a new idle reaper. recorder may be nil.
func NewIdleReaper(
	registry IdleEvicter,
	recorder EvictionRecorder,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *IdleReaper {
	if threshold == 0 {
		threshold = DefaultIdleTimeout
	}

	return &IdleReaper{
		registry:  registry,
		recorder:  recorder,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic reaping
func (ir *IdleReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(ir.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ir.Reap()
			case <-ir.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the reaper
func (ir *IdleReaper) Stop() {
	close(ir.stopCh)
}

// Reap evicts every user idle for longer than the threshold and returns how
// many were dropped.
func (ir *IdleReaper) Reap() int {
	evicted := ir.registry.EvictIdle(ir.threshold)
	if len(evicted) == 0 {
		ir.logger.Debug("no idle sessions to reap")
		return 0
	}

	if ir.recorder != nil {
		ir.recorder.Evicted("idle", len(evicted))
	}
	ir.logger.Info("reaped idle sessions",
		logger.Int("count", len(evicted)),
		logger.Duration("idle_for", ir.threshold))

	return len(evicted)
}
