package services

import (
	"sync"

	"studyplan_go/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// BatchScheduler owns the recurring background jobs: the nightly carryover
// batch, the hourly audit queue flush and the daily audit archive.
type BatchScheduler struct {
	cron      *cron.Cron
	carryover *CarryoverService
	archive   *AuditArchiveService

	mu      sync.Mutex
	running bool
}

var (
	batchScheduler     *BatchScheduler
	batchSchedulerOnce sync.Once
)

// GetBatchScheduler returns the process-wide scheduler instance.
func GetBatchScheduler() *BatchScheduler {
	batchSchedulerOnce.Do(func() {
		batchScheduler = &BatchScheduler{
			cron:      cron.New(),
			carryover: NewCarryoverService(),
			archive:   NewAuditArchiveService(),
		}
	})
	return batchScheduler
}

// Start registers the jobs and starts the cron runner. Calling Start on a
// running scheduler is a no-op.
func (bs *BatchScheduler) Start() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.running {
		return nil
	}

	carryoverSpec := config.AppConfig.CarryoverCron
	if _, err := bs.cron.AddFunc(carryoverSpec, bs.runCarryover); err != nil {
		return err
	}
	if _, err := bs.cron.AddFunc("@hourly", bs.flushAuditQueue); err != nil {
		return err
	}
	if _, err := bs.cron.AddFunc("30 3 * * *", bs.archiveAuditLogs); err != nil {
		return err
	}

	bs.cron.Start()
	bs.running = true
	logrus.WithField("carryover_cron", carryoverSpec).Info("Batch scheduler started")
	return nil
}

// Stop halts the cron runner. Jobs already in flight finish on their own.
func (bs *BatchScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if !bs.running {
		return
	}
	bs.cron.Stop()
	bs.running = false
	logrus.Info("Batch scheduler stopped")
}

func (bs *BatchScheduler) runCarryover() {
	report, err := bs.carryover.Run(SystemScope(), CarryoverOptions{})
	if err != nil {
		logrus.WithError(err).Error("Nightly carryover batch failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"cutoff":    report.Cutoff.Format("2006-01-02"),
		"processed": report.ProcessedCount,
		"failed":    report.FailedCount,
	}).Info("Nightly carryover batch completed")
}

func (bs *BatchScheduler) flushAuditQueue() {
	if !config.AppConfig.UseRedisAuditQueue {
		return
	}
	if err := bs.archive.FlushQueuedEvents(); err != nil {
		logrus.WithError(err).Error("Audit queue flush failed")
	}
}

func (bs *BatchScheduler) archiveAuditLogs() {
	if err := bs.archive.ArchiveOldEvents(90); err != nil {
		logrus.WithError(err).Error("Audit archive run failed")
	}
}
