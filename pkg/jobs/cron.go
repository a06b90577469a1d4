// Package jobs schedules background maintenance: the daily sweep that expires
// subscription rows no webhook has touched in thirty days.
package jobs

import (
	"context"
	"time"

	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/store"
	"github.com/robfig/cron/v3"
)

// staleCutoffDays mirrors the staleness window used by the subscription
// check: an "active" row older than this is no longer trusted.
const staleCutoffDays = 30

// VerdictCache is the slice of the subscription oracle the sweep needs:
// dropping memoized verdicts after rows are expired underneath them.
type VerdictCache interface {
	Flush()
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron     *cron.Cron
	subs     store.SubscriptionStore
	verdicts VerdictCache
	log      logger.Logger
}

// NewCronManager creates a new cron manager. verdicts may be nil.
func NewCronManager(subs store.SubscriptionStore, verdicts VerdictCache, log logger.Logger) *CronManager {
	return &CronManager{
		cron:     cron.New(),
		subs:     subs,
		verdicts: verdicts,
		log:      log,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	// Daily at 2 AM: flip active rows that stopped receiving webhook updates
	_, err := cm.cron.AddFunc("0 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := cm.SweepStaleSubscriptions(ctx); err != nil {
			cm.log.Error("stale subscription sweep failed", "error", err)
		}
	})
	return err
}

// SweepStaleSubscriptions marks active rows older than the cutoff as expired.
func (cm *CronManager) SweepStaleSubscriptions(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -staleCutoffDays)

	affected, err := cm.subs.MarkExpiredOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	// Memoized verdicts were computed against the rows just expired
	if cm.verdicts != nil && affected > 0 {
		cm.verdicts.Flush()
	}

	cm.log.Info("stale subscription sweep finished", "expired", affected, "cutoff", cutoff)
	return nil
}

// Start begins running scheduled jobs
func (cm *CronManager) Start() {
	cm.log.Info("starting cron scheduler")
	cm.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (cm *CronManager) Stop() {
	cm.log.Info("stopping cron scheduler")
	ctx := cm.cron.Stop()
	<-ctx.Done()
}
