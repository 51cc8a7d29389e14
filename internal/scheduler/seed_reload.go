package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/chantabs/internal/logger"
)

// SeedSource is a reloadable seed bookmark collection.
type SeedSource interface {
	Enabled() bool
	Reload() (int, error)
}

// SeedReloader handles periodic reloading of the seed bookmarks
type SeedReloader struct {
	source        SeedSource
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewSeedReloader creates a new seed reloader. Sends on manualTrigger force
// an immediate reload.
func NewSeedReloader(
	source SeedSource,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedReloader {
	return &SeedReloader{
		source:        source,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the seed once and then reloads it every interval. A disabled
// source is a no-op. An interval of zero disables the periodic reload, manual
// triggers are still served.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if !sr.source.Enabled() {
		sr.logger.Info("no seed file configured, new users start without bookmarks")
		return nil
	}

	if err := sr.Reload(); err != nil {
		return fmt.Errorf("initial seed reload failed: %w", err)
	}

	go func() {
		var tick <-chan time.Time
		if sr.interval > 0 {
			ticker := time.NewTicker(sr.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				if err := sr.Reload(); err != nil {
					sr.logger.Error("failed to reload seed", logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual seed reload triggered")
				if err := sr.Reload(); err != nil {
					sr.logger.Error("failed to reload seed", logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (sr *SeedReloader) Stop() {
	close(sr.stopCh)
}

// Reload reads the seed file again. The previous seed stays in use on error.
func (sr *SeedReloader) Reload() error {
	n, err := sr.source.Reload()
	if err != nil {
		return err
	}
	sr.logger.Info("seed bookmarks loaded", logger.Int("count", n))
	return nil
}
