package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"pointshop-backend/internal/config"
	"pointshop-backend/internal/shared"
	"pointshop-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redis config.RedisConfig, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt(redis.Host, redis.Password, redis.DB),
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerPointsReconcileJob()
}

// ================================================
// Points ledger reconciliation (hourly by default)
// ================================================
func (s *Scheduler) registerPointsReconcileJob() error {
	payload, err := json.Marshal(shared.ReconcilePayload{Limit: s.jobConfig.ReconcileLimit})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypePointsReconcile, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.ReconcileCron,
		task,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		// One reconcile at a time even if a run overlaps the next tick
		asynq.Unique(time.Hour),
	)
	if err != nil {
		logger.Error("Failed to register PointsReconcile job", err)
		return err
	}

	logger.Info("Registered PointsReconcile", map[string]interface{}{"cron": s.jobConfig.ReconcileCron})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
