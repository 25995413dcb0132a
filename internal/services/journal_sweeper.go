package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/edustack/authuser/internal/infrastructure/journal"
)

// SweeperConfig controls how often and how aggressively the purge journal
// is pruned.
type SweeperConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// JournalSweeper drops journal entries past the retention window. Entries
// are reconciliation breadcrumbs, not a retry queue, so pruning them never
// affects user-facing behavior.
type JournalSweeper struct {
	store  *journal.Store
	logger *zap.Logger
	cron   *cron.Cron
	cfg    SweeperConfig
}

func NewJournalSweeper(store *journal.Store, logger *zap.Logger, cfg SweeperConfig) *JournalSweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sweeper := &JournalSweeper{
		store:  store,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = sweeper.cron.AddFunc(schedule, sweeper.Sweep)

	return sweeper
}

// Start launches the cron scheduler.
func (s *JournalSweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("journal sweeper started", zap.Duration("interval", s.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (s *JournalSweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

// Sweep prunes entries older than the retention window.
func (s *JournalSweeper) Sweep() {
	cutoff := time.Now().UTC().Add(-s.cfg.Retention)
	removed, err := s.store.Prune(cutoff)
	if err != nil {
		s.logger.Error("journal sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("journal entries pruned", zap.Int("removed", removed))
	}
}
