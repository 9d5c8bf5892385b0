package scheduler

import (
	"context"
	"time"

	"github.com/mynu/mynu-backend/internal/app/service"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// GracePeriodScheduler periodically demotes users whose subscriptions ended.
type GracePeriodScheduler struct {
	cron    *cron.Cron
	spec    string
	sweeper service.RoleSweeper
	timeout time.Duration
	now     func() time.Time
}

func NewGracePeriodScheduler(spec string, sweeper service.RoleSweeper) *GracePeriodScheduler {
	if spec == "" {
		spec = "@hourly"
	}
	return &GracePeriodScheduler{
		cron:    cron.New(),
		spec:    spec,
		sweeper: sweeper,
		timeout: 5 * time.Minute,
		now:     time.Now,
	}
}

func (s *GracePeriodScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for grace period sweep", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Grace period scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce performs a single sweep.
func (s *GracePeriodScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logger.Info("Starting scheduled grace period sweep")
	changed, err := s.sweeper.DemoteEnded(ctx, s.now())
	if err != nil {
		logger.Error("Grace period sweep failed", err, map[string]interface{}{
			"changed": changed,
		})
		return
	}
	logger.Info("Grace period sweep finished", map[string]interface{}{
		"changed": changed,
	})
}

// Stop waits for a running sweep to finish.
func (s *GracePeriodScheduler) Stop() {
	logger.Info("Stopping grace period scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Grace period scheduler stopped")
}
