package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"pointshop-backend/internal/shared"
	"pointshop-backend/pkg/container"
	"pointshop-backend/pkg/logger"
)

// asynqServer wraps asynq.Server with startup and shutdown logging
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer builds the mux and starts processing in the background
func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	redis := c.Config.Redis
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redis.Host, Password: redis.Password, DB: redis.DB},
		asynq.Config{
			Queues: map[string]int{
				shared.QueueOrder:       6,
				shared.QueueInventory:   3,
				shared.QueueMaintenance: 1,
			},
			Concurrency: c.Config.Jobs.WorkerConcurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.ErrorWithFields("[Asynq] Task failed", err, map[string]interface{}{
					"type":      task.Type(),
					"retried":   retried,
					"max_retry": maxRetry,
				})
			}),
		},
	)

	go func() {
		logger.Info("[Worker] Starting", map[string]interface{}{"concurrency": c.Config.Jobs.WorkerConcurrency})
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("[Worker] Failed")
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for in flight tasks up to asynq's ShutdownTimeout
func (s *asynqServer) Shutdown() {
	logger.Info("[Worker] Shutting down", nil)
	s.Server.Shutdown()
	logger.Info("[Worker] Stopped", nil)
}
