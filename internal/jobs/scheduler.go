// Package jobs runs the background tasks on a cron schedule: the
// nightly ledger backup and the hourly quiz-session sweep.
package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/backup"
	"github.com/master-pd/marpd/internal/config"
	"github.com/master-pd/marpd/internal/features/games"
)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	backups  *backup.Manager
	sessions *games.SessionStore
}

// NewScheduler creates the scheduler in the configured timezone.
func NewScheduler(cfg *config.Config, backups *backup.Manager, sessions *games.SessionStore) *Scheduler {
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		log.WithError(err).Warnf("Failed to load %s, falling back to UTC+6", cfg.AppTimezone)
		loc = time.FixedZone("BDT", 6*60*60)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		backups:  backups,
		sessions: sessions,
	}
}

// Start registers and launches the background tasks.
func (s *Scheduler) Start() {
	// Nightly backup at 03:00 local time, outside peak hours.
	s.cron.AddFunc("0 3 * * *", func() {
		log.Info("[CRON] Nightly backup")
		if _, err := s.backups.Create(); err != nil {
			log.WithError(err).Error("[CRON] Backup failed")
		}
	})

	// Sweep abandoned quiz sessions every hour.
	s.cron.AddFunc("0 * * * *", func() {
		if removed := s.sessions.Cleanup(); removed > 0 {
			log.WithField("removed", removed).Debug("[CRON] Quiz sessions swept")
		}
	})

	s.cron.Start()
	log.Info("Job scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Job scheduler stopped")
}
