package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskEnqueuer is the part of *asynq.Client services use
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(redisOpt(redisAddr, password, db))
}

func redisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

// EnqueueJSON marshals payload and enqueues it as taskType
func EnqueueJSON(ctx context.Context, q TaskEnqueuer, taskType string, payload interface{}, opts ...asynq.Option) error {
	if q == nil {
		return nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", taskType, err)
	}

	if _, err := q.EnqueueContext(ctx, asynq.NewTask(taskType, b), opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
