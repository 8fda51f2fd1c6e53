package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mangazinho-backend/internal/shared"

	"github.com/hibiken/asynq"
)

// Client enqueues background storage tasks from the API process.
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr, password string, db int) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		}),
	}
}

// EnqueueRemoveTree schedules deletion of a storage directory after a
// cascade delete has committed. Retried by the worker on failure.
func (c *Client) EnqueueRemoveTree(ctx context.Context, dir string) error {
	payload, err := json.Marshal(shared.RemoveTreePayload{Dir: dir})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeStorageRemoveTree, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueStorage),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", shared.TypeStorageRemoveTree, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
