package main

import (
	"github.com/rs/zerolog/log"

	"pointshop-backend/internal/infrastructure/queue"
	"pointshop-backend/pkg/container"
	"pointshop-backend/pkg/logger"
)

// asynqScheduler wraps queue.Scheduler with startup and shutdown logging
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers the cron jobs and starts the scheduler
func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := queue.NewScheduler(c.Config.Redis, c.Config.Jobs)

	if err := scheduler.RegisterJobs(); err != nil {
		log.Fatal().Err(err).Msg("[Scheduler] Failed to register")
	}

	go func() {
		logger.Info("[Scheduler] Starting", nil)
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("[Scheduler] Failed")
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	logger.Info("[Scheduler] Shutting down", nil)
	s.Scheduler.Shutdown()
	logger.Info("[Scheduler] Stopped", nil)
}
